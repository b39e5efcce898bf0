package engine

import (
	"errors"
	"sync"

	"github.com/prismrt/prism/pkg/registry"
	"github.com/prismrt/prism/pkg/rt"
	"github.com/prismrt/prism/pkg/session"
)

// errRevoked reports that an evaluation lost its claim on the session
// after timing out or being superseded.
var errRevoked = errors.New("evaluation is no longer active")

// sessionGuard is the only path from builtins to the shared session.
//
// The session is single-threaded by contract, but a timed-out evaluation
// leaves its interpreter goroutine running with no way to stop it. Each
// evaluation gets its own guard; revoking it cuts the orphan goroutine
// off from the session, so whatever the interpreter does next stays
// inside its own discarded environment.
type sessionGuard struct {
	mu      sync.Mutex
	revoked bool
	sess    *session.Session
}

func newSessionGuard(sess *session.Session) *sessionGuard {
	return &sessionGuard{sess: sess}
}

// revoke permanently cuts this evaluation off from the session. It blocks
// until any in-flight builtin call completes, so once revoke returns the
// caller is the session's only writer again.
func (g *sessionGuard) revoke() {
	g.mu.Lock()
	g.revoked = true
	g.mu.Unlock()
}

func (g *sessionGuard) Supported() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revoked {
		return false
	}
	return g.sess.Supported()
}

func (g *sessionGuard) BackendName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revoked {
		return rt.KindNone.String()
	}
	return g.sess.BackendName()
}

func (g *sessionGuard) CreateGeometry(d session.GeometryData) (registry.ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revoked {
		return registry.Invalid, errRevoked
	}
	return g.sess.CreateGeometry(d)
}

func (g *sessionGuard) CreateBLAS(geometries []registry.ID) (registry.ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revoked {
		return registry.Invalid, errRevoked
	}
	return g.sess.CreateBLAS(geometries)
}

func (g *sessionGuard) CreateTLAS(instances []session.InstanceData) (registry.ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revoked {
		return registry.Invalid, errRevoked
	}
	return g.sess.CreateTLAS(instances)
}

func (g *sessionGuard) UpdateTLAS(id registry.ID, instances []session.InstanceData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revoked {
		return errRevoked
	}
	return g.sess.UpdateTLAS(id, instances)
}

func (g *sessionGuard) TraceRays(d session.TraceData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revoked {
		return errRevoked
	}
	return g.sess.TraceRays(d)
}

func (g *sessionGuard) DestroyGeometry(id registry.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revoked {
		return
	}
	g.sess.DestroyGeometry(id)
}

func (g *sessionGuard) DestroyBLAS(id registry.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revoked {
		return
	}
	g.sess.DestroyBLAS(id)
}

func (g *sessionGuard) DestroyTLAS(id registry.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.revoked {
		return
	}
	g.sess.DestroyTLAS(id)
}
