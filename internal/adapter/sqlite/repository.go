package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/pairprep/pairprep/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

const timeFormat = "2006-01-02T15:04:05Z"

// Store wraps the database connection shared by both repositories.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and
// returns a ready store. Use this when the *sql.DB has been pre-configured
// (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters
// (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Profiles returns the profile repository backed by this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Invitations returns the invitation repository backed by this store.
func (s *Store) Invitations() *InvitationRepository {
	return &InvitationRepository{db: s.db}
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// ProfileRepository implements domain.ProfileRepository using SQLite.
type ProfileRepository struct {
	db *sql.DB
}

// Compile-time check: ProfileRepository implements domain.ProfileRepository.
var _ domain.ProfileRepository = (*ProfileRepository)(nil)

const profileColumns = `user_id, email, first_name, last_name, date_of_birth, age,
	gender, marital_status, country, city, partner_name, wedding_date,
	partner_using_app, partner_email, partner_id, created_at, updated_at`

func (r *ProfileRepository) Update(ctx context.Context, p domain.Profile) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET email = ?, first_name = ?, last_name = ?,
		 date_of_birth = ?, age = ?, gender = ?, marital_status = ?,
		 country = ?, city = ?, partner_name = ?, wedding_date = ?,
		 partner_using_app = ?, partner_email = ?, updated_at = ?
		 WHERE user_id = ?`,
		append(updateArgs(p), p.UserID)...,
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrProfileNotFound
	}

	return nil
}

func (r *ProfileRepository) Insert(ctx context.Context, p domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insertArgs(p)...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Key: p.UserID}
		}
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   email = excluded.email, first_name = excluded.first_name,
		   last_name = excluded.last_name, date_of_birth = excluded.date_of_birth,
		   age = excluded.age, gender = excluded.gender,
		   marital_status = excluded.marital_status, country = excluded.country,
		   city = excluded.city, partner_name = excluded.partner_name,
		   wedding_date = excluded.wedding_date,
		   partner_using_app = excluded.partner_using_app,
		   partner_email = excluded.partner_email, updated_at = excluded.updated_at`,
		insertArgs(p)...,
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID,
	))
}

func (r *ProfileRepository) GetPartnerID(ctx context.Context, userID string) (string, error) {
	var partnerID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT partner_id FROM profiles WHERE user_id = ?`, userID,
	).Scan(&partnerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ErrProfileNotFound
		}
		return "", fmt.Errorf("querying partner id: %w", err)
	}
	return partnerID.String, nil
}

func updateArgs(p domain.Profile) []any {
	return []any{
		p.Email, p.FirstName, nullString(p.LastName),
		p.DateOfBirth.Format(domain.DateFormat), nullInt(p.Age),
		string(p.Gender), string(p.MaritalStatus),
		nullString(p.Country), nullString(p.City), nullString(p.PartnerName),
		nullDate(p.WeddingDate), nullBool(p.PartnerUsing), nullString(p.PartnerEmail),
		p.UpdatedAt.UTC().Format(timeFormat),
	}
}

func insertArgs(p domain.Profile) []any {
	return []any{
		p.UserID, p.Email, p.FirstName, nullString(p.LastName),
		p.DateOfBirth.Format(domain.DateFormat), nullInt(p.Age),
		string(p.Gender), string(p.MaritalStatus),
		nullString(p.Country), nullString(p.City), nullString(p.PartnerName),
		nullDate(p.WeddingDate), nullBool(p.PartnerUsing), nullString(p.PartnerEmail),
		nullString(p.PartnerID),
		p.CreatedAt.Format(timeFormat), p.UpdatedAt.Format(timeFormat),
	}
}

func scanProfile(row *sql.Row) (domain.Profile, error) {
	var p domain.Profile
	var lastName, country, city, partnerName, weddingDate, partnerEmail, partnerID sql.NullString
	var age sql.NullInt64
	var partnerUsing sql.NullBool
	var gender, marital, dob, createdAt, updatedAt string

	err := row.Scan(&p.UserID, &p.Email, &p.FirstName, &lastName, &dob, &age,
		&gender, &marital, &country, &city, &partnerName, &weddingDate,
		&partnerUsing, &partnerEmail, &partnerID, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Profile{}, domain.ErrProfileNotFound
		}
		return domain.Profile{}, fmt.Errorf("scanning profile: %w", err)
	}

	p.Gender = domain.Gender(gender)
	p.MaritalStatus = domain.MaritalStatus(marital)
	p.DateOfBirth, _ = time.Parse(domain.DateFormat, dob)
	p.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	p.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	p.LastName = fromNullString(lastName)
	p.Country = fromNullString(country)
	p.City = fromNullString(city)
	p.PartnerName = fromNullString(partnerName)
	p.PartnerEmail = fromNullString(partnerEmail)
	p.PartnerID = fromNullString(partnerID)

	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	if partnerUsing.Valid {
		v := partnerUsing.Bool
		p.PartnerUsing = &v
	}
	if weddingDate.Valid {
		if wd, err := time.Parse(domain.DateFormat, weddingDate.String); err == nil {
			p.WeddingDate = &wd
		}
	}

	return p, nil
}

// InvitationRepository implements domain.InvitationRepository using SQLite.
type InvitationRepository struct {
	db *sql.DB
}

// Compile-time check: InvitationRepository implements domain.InvitationRepository.
var _ domain.InvitationRepository = (*InvitationRepository)(nil)

func (r *InvitationRepository) FindPending(ctx context.Context, inviterID string) (domain.Invitation, error) {
	var inv domain.Invitation
	var status, createdAt, expiresAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, inviter_id, invitee_email, status, created_at, expires_at
		 FROM invitations
		 WHERE inviter_id = ? AND status = ? AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`,
		inviterID, string(domain.InvitationPending),
		time.Now().UTC().Format(timeFormat),
	).Scan(&inv.ID, &inv.InviterID, &inv.InviteeEmail, &status, &createdAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Invitation{}, domain.ErrInvitationNotFound
		}
		return domain.Invitation{}, fmt.Errorf("querying pending invitation: %w", err)
	}

	inv.Status = domain.InvitationStatus(status)
	inv.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	inv.ExpiresAt, _ = time.Parse(timeFormat, expiresAt)

	return inv, nil
}

func (r *InvitationRepository) Create(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invitations (id, inviter_id, invitee_email, status, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.InviterID, inv.InviteeEmail, string(inv.Status),
		inv.CreatedAt.Format(timeFormat), inv.ExpiresAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Key: inv.ID}
		}
		return fmt.Errorf("inserting invitation: %w", err)
	}
	return nil
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullDate(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.Format(domain.DateFormat)
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
