package ports

import (
	"context"

	"github.com/layer-3/snappa/core"
)

// Directory looks up users in the social graph.
// GetUser returns core.ErrUserNotFound when the fid has no record and an
// error wrapping core.ErrDirectory when the directory cannot be reached.
type Directory interface {
	GetUser(ctx context.Context, fid core.FID) (*core.DirectoryUser, error)
}
