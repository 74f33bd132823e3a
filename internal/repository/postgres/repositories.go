package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories bundles the PostgreSQL-backed repositories sharing one pool.
type Repositories struct {
	Users  *UserRepository
	Lists  *ListRepository
	Shares *ShareRepository
}

// NewRepositories constructs every repository over the given pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:  NewUserRepository(pool),
		Lists:  NewListRepository(pool),
		Shares: NewShareRepository(pool),
	}
}
