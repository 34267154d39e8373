package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ayush/travel-journal/backend/internal/common"
	"github.com/ayush/travel-journal/backend/internal/models"
	"github.com/ayush/travel-journal/backend/internal/store/migrations"
)

// PostgresStore handles user and journal CRUD against PostgreSQL. Every
// method is a single statement; the pool hands out a connection per call.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded goose migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	// The pool owns the connections; the *sql.DB is only a view for goose.
	db := stdlib.OpenDBFromPool(s.pool)

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// translate maps driver errors onto the common sentinels.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", common.ErrConflict, pgErr.ConstraintName)
		case "22P02": // invalid_text_representation, e.g. a malformed uuid
			return common.ErrNotFound
		}
	}
	return fmt.Errorf("db error: %w", err)
}

type scanner interface {
	Scan(dest ...any) error
}

// setList accumulates "col = $n" fragments for a partial UPDATE. Column
// names are constants; values are always bound parameters.
type setList struct {
	cols []string
	args []any
}

func (s *setList) add(col string, v any) {
	s.args = append(s.args, v)
	s.cols = append(s.cols, fmt.Sprintf("%s = $%d", col, len(s.args)))
}

func (s *setList) raw(expr string) {
	s.cols = append(s.cols, expr)
}

// build returns the SET clause and the placeholder index for the id.
func (s *setList) build() (string, int) {
	return strings.Join(s.cols, ", "), len(s.args) + 1
}

// ─── Users ───────────────────────────────────────────────────

const userColumns = `id, username, email, password_hash, full_name, avatar, location, bio,
	join_date, status, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	var status string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Avatar,
		&u.Location, &u.Bio, &u.JoinDate, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	u.Status = models.UserStatus(status)
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	avatar := u.Avatar
	if avatar == "" {
		avatar = models.DefaultAvatar
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, full_name, avatar, location, bio, join_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.FullName, avatar, u.Location, u.Bio, u.JoinDate, string(u.Status),
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// FindUserByUsernameOrEmail prefers a username match when both exist.
func (s *PostgresStore) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE username = $1 OR email = $2
		 ORDER BY (username = $1) DESC
		 LIMIT 1`, username, email))
}

// PromoteUser completes registration of a placeholder in one statement.
func (s *PostgresStore) PromoteUser(ctx context.Context, id, passwordHash, email, fullName string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users
		 SET password_hash = $1, email = $2, full_name = $3, status = 'registered',
		     join_date = COALESCE(join_date, NOW()), updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+userColumns,
		passwordHash, email, fullName, id))
	if err != nil {
		return nil, fmt.Errorf("promote user: %w", err)
	}
	return u, nil
}

// UpdateUser writes the set fields of p. Any update registers the user and
// backfills the join date.
func (s *PostgresStore) UpdateUser(ctx context.Context, id string, p models.UserPatch) (*models.User, error) {
	var set setList
	if v, ok := p.FullName.Get(); ok {
		set.add("full_name", v)
	}
	if v, ok := p.Username.Get(); ok {
		set.add("username", v)
	}
	if v, ok := p.Email.Get(); ok {
		set.add("email", v)
	}
	if v, ok := p.Bio.Get(); ok {
		set.add("bio", v)
	}
	if v, ok := p.Location.Get(); ok {
		set.add("location", v)
	}
	if v, ok := p.Avatar.Get(); ok {
		set.add("avatar", v)
	}
	set.raw("status = 'registered'")
	set.raw("join_date = COALESCE(join_date, NOW())")
	set.raw("updated_at = NOW()")

	clause, idPos := set.build()
	u, err := scanUser(s.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`, clause, idPos, userColumns),
		append(set.args, id)...))
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// ─── Journals ────────────────────────────────────────────────

const journalColumns = `id, name, locations, start_date, end_date, summary, ai_summary,
	cover_image, cover_object_key, rating, companions, highlights, tags, created_at, updated_at`

func scanJournal(row scanner) (*models.Journal, error) {
	var j models.Journal
	var start, end *time.Time
	err := row.Scan(&j.ID, &j.Name, &j.Locations, &start, &end, &j.Summary, &j.AISummary,
		&j.CoverImage, &j.CoverKey, &j.Rating, &j.Companions, &j.Highlights, &j.Tags,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	j.StartDate = fromTime(start)
	j.EndDate = fromTime(end)
	j.Normalize()
	return &j, nil
}

func fromTime(t *time.Time) *models.Date {
	if t == nil {
		return nil
	}
	d := models.NewDate(*t)
	return &d
}

// dateArg binds a nullable DATE parameter.
func dateArg(d *models.Date) any {
	if d = models.DatePtr(d); d == nil {
		return nil
	}
	return d.Time
}

// arrayArg binds a NOT NULL text[] parameter.
func arrayArg(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func (s *PostgresStore) CreateJournal(ctx context.Context, j *models.Journal) (*models.Journal, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO journals (name, locations, start_date, end_date, summary, ai_summary,
		                       cover_image, rating, companions, highlights, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+journalColumns,
		j.Name, arrayArg(j.Locations), dateArg(j.StartDate), dateArg(j.EndDate), j.Summary, j.AISummary,
		j.CoverImage, j.Rating, arrayArg(j.Companions), arrayArg(j.Highlights), arrayArg(j.Tags),
	)
	created, err := scanJournal(row)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) ListJournals(ctx context.Context) ([]models.Journal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+journalColumns+` FROM journals ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	journals := []models.Journal{}
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		journals = append(journals, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return journals, nil
}

func (s *PostgresStore) GetJournal(ctx context.Context, id string) (*models.Journal, error) {
	return scanJournal(s.pool.QueryRow(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE id = $1`, id))
}

// journalSetList converts a patch into SET fragments.
func journalSetList(p models.JournalPatch) setList {
	var set setList
	if v, ok := p.Name.Get(); ok {
		set.add("name", v)
	}
	if v, ok := p.Locations.Get(); ok {
		set.add("locations", arrayArg(v))
	}
	if v, ok := p.StartDate.Get(); ok {
		set.add("start_date", dateArg(v))
	}
	if v, ok := p.EndDate.Get(); ok {
		set.add("end_date", dateArg(v))
	}
	if v, ok := p.Summary.Get(); ok {
		set.add("summary", v)
	}
	if v, ok := p.AISummary.Get(); ok {
		set.add("ai_summary", v)
	}
	if v, ok := p.CoverImage.Get(); ok {
		set.add("cover_image", v)
	}
	if v, ok := p.CoverKey.Get(); ok {
		set.add("cover_object_key", v)
	}
	if v, ok := p.Rating.Get(); ok {
		set.add("rating", v)
	}
	if v, ok := p.Companions.Get(); ok {
		set.add("companions", arrayArg(v))
	}
	if v, ok := p.Highlights.Get(); ok {
		set.add("highlights", arrayArg(v))
	}
	if v, ok := p.Tags.Get(); ok {
		set.add("tags", arrayArg(v))
	}
	set.raw("updated_at = NOW()")
	return set
}

func (s *PostgresStore) UpdateJournal(ctx context.Context, id string, p models.JournalPatch) (*models.Journal, error) {
	set := journalSetList(p)
	clause, idPos := set.build()
	j, err := scanJournal(s.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE journals SET %s WHERE id = $%d RETURNING %s`, clause, idPos, journalColumns),
		append(set.args, id)...))
	if err != nil {
		return nil, fmt.Errorf("update journal: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) DeleteJournal(ctx context.Context, id string) (*models.Journal, error) {
	j, err := scanJournal(s.pool.QueryRow(ctx,
		`DELETE FROM journals WHERE id = $1 RETURNING `+journalColumns, id))
	if err != nil {
		return nil, fmt.Errorf("delete journal: %w", err)
	}
	return j, nil
}

// CountJournals returns the number of stored entries.
func (s *PostgresStore) CountJournals(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journals`).Scan(&n); err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
