package users

import (
	"context"
	"fmt"

	"delivery-service/internal/auth"
)

// DemoUsers are the accounts created by cmd/seed and by memory-backed
// development servers.
var DemoUsers = []SeedUser{
	{Name: "Admin", Email: "admin@demo.com", Phone: "1234567890", Password: "Admin@123", Role: auth.RoleAdmin},
	{Name: "Driver 1", Email: "driver1@demo.com", Phone: "0987654321", Password: "Driver@123", Role: auth.RoleDriver},
	{Name: "Client 1", Email: "client@demo.com", Phone: "432157896", Password: "Client@123", Role: auth.RoleClient},
}

// SeedAll upserts every user of in, stopping at the first failure.
func (s *Service) SeedAll(ctx context.Context, in []SeedUser) ([]*User, error) {
	out := make([]*User, 0, len(in))
	for _, u := range in {
		created, err := s.Upsert(ctx, u)
		if err != nil {
			return out, fmt.Errorf("seed %s: %w", u.Email, err)
		}
		out = append(out, created)
	}
	return out, nil
}
