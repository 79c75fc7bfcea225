package api

import (
	"context"

	"labportal/internal/user"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

func UserFromContext(ctx context.Context) *user.User {
	v := ctx.Value(ctxKeyUser)
	if v == nil {
		return nil
	}
	u, _ := v.(*user.User)
	return u
}
