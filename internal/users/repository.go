package users

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-service/internal/apperr"
	"delivery-service/internal/auth"
)

// Repository persists users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// List returns users newest first; an empty role lists every role.
	List(ctx context.Context, role auth.Role) ([]*User, error)
	// Upsert inserts u, or updates the user with the same email, keeping its id.
	Upsert(ctx context.Context, u *User) (*User, error)
}

const userColumns = `id,name,email,phone,password_hash,role,is_active,created_at,updated_at`

// PGRepository is the PostgreSQL-backed Repository.
type PGRepository struct {
	db *pgxpool.Pool
}

// NewPGRepository creates a repository backed by the given pool.
func NewPGRepository(db *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: db}
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *PGRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *PGRepository) getOne(ctx context.Context, q string, arg string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, q, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.MapDBError(err)
	}
	return u, nil
}

func (r *PGRepository) List(ctx context.Context, role auth.Role) ([]*User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != "" {
		q += ` WHERE role=$1`
		args = append(args, string(role))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.MapDBError(err)
	}
	defer rows.Close()

	out := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.MapDBError(err)
		}
		out = append(out, u)
	}
	return out, apperr.MapDBError(rows.Err())
}

func (r *PGRepository) Upsert(ctx context.Context, u *User) (*User, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO users (id,name,email,phone,password_hash,role,is_active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (email) DO UPDATE
		    SET password_hash=EXCLUDED.password_hash, role=EXCLUDED.role,
		        is_active=EXCLUDED.is_active, updated_at=NOW()
		 RETURNING `+userColumns,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, string(u.Role), u.Active)
	saved, err := scanUser(row)
	if err != nil {
		return nil, apperr.MapDBError(err)
	}
	return saved, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
		&role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}

// MemRepository is an in-process Repository used by tests and
// STORE_DRIVER=memory.
type MemRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemRepository returns an empty MemRepository.
func NewMemRepository() *MemRepository {
	return &MemRepository{users: make(map[string]*User)}
}

func (r *MemRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	c := *u
	return &c, nil
}

func (r *MemRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (r *MemRepository) List(_ context.Context, role auth.Role) ([]*User, error) {
	r.mu.RLock()
	out := []*User{}
	for _, u := range r.users {
		if role != "" && u.Role != role {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (r *MemRepository) Upsert(_ context.Context, u *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			existing.PasswordHash = u.PasswordHash
			existing.Role = u.Role
			existing.Active = u.Active
			existing.UpdatedAt = now
			c := *existing
			return &c, nil
		}
	}
	c := *u
	c.CreatedAt, c.UpdatedAt = now, now
	r.users[c.ID] = &c
	out := c
	return &out, nil
}
