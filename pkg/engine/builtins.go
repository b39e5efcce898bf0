package engine

import (
	"github.com/charmbracelet/log"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/prismrt/prism/pkg/meshgen"
	"github.com/prismrt/prism/pkg/registry"
	"github.com/prismrt/prism/pkg/session"
)

// registerBuiltins installs the ray tracing surface into a zygomys
// environment. All builtins reach the session through the evaluation's
// guard, so a timed-out evaluation's builtins degrade to no-ops.
//
// Failure policy: no builtin ever raises a script error for bad input or
// an unavailable backend. Creation calls return nil (SexpNull) and log a
// diagnostic naming the call and the offending field; destroy calls are
// silent no-ops. This mirrors the host contract: callers can only
// distinguish "it worked" from "it did not".
//
// Source must be preprocessed with preprocessSource so :keyword tokens
// and kebab-case names are in the form zygomys accepts. The registered
// names use underscores; scripts write rt-create-geometry and friends.
func registerBuiltins(env *zygo.Zlisp, sess *sessionGuard, logger *log.Logger, defaults TraceDefaults) {

	// -----------------------------------------------------------------------
	// (rt-supported) -> bool
	// -----------------------------------------------------------------------
	env.AddFunction("rt_supported", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpBool{Val: sess.Supported()}, nil
	})

	// -----------------------------------------------------------------------
	// (rt-backend) -> "dxr" | "vulkan" | "metal" | "none"
	// -----------------------------------------------------------------------
	env.AddFunction("rt_backend", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpStr{S: sess.BackendName()}, nil
	})

	// -----------------------------------------------------------------------
	// (rt-create-geometry :vertices [x y z ...] :indices [i ...]
	//                     :vertex-stride 12 :vertex-offset 0)
	// (rt-create-geometry :mesh (mesh-box :x 1 :y 1 :z 1))
	// -----------------------------------------------------------------------
	env.AddFunction("rt_create_geometry", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		data := session.GeometryData{}

		if m, ok := pa.kw["mesh"]; ok {
			sm, ok := m.(*sexpMesh)
			if !ok {
				logger.Error("createGeometry: mesh: expected a mesh value")
				return zygo.SexpNull, nil
			}
			data.Vertices = sm.mesh.Vertices
			data.Indices = sm.mesh.Indices
		} else {
			buf, err := floatBuffer(pa.kw["vertices"])
			if err != nil {
				logger.Error("createGeometry: invalid or missing vertices", "err", err)
				return zygo.SexpNull, nil
			}
			data.Vertices = buf

			if v, ok := pa.kw["indices"]; ok {
				idx, err := uintBuffer(v)
				if err != nil {
					// Indices are optional; a malformed buffer means
					// non-indexed geometry, as in the original surface.
					logger.Debug("createGeometry: ignoring malformed indices", "err", err)
				} else {
					data.Indices = idx
				}
			}
		}

		if v, ok := pa.kw["vertex-stride"]; ok {
			u, err := toUint32(v)
			if err != nil {
				logger.Error("createGeometry: vertex-stride", "err", err)
				return zygo.SexpNull, nil
			}
			data.VertexStride = int(u)
		}
		if v, ok := pa.kw["vertex-offset"]; ok {
			u, err := toUint32(v)
			if err != nil {
				logger.Error("createGeometry: vertex-offset", "err", err)
				return zygo.SexpNull, nil
			}
			data.VertexOffset = int(u)
		}

		id, err := sess.CreateGeometry(data)
		if err != nil {
			logger.Error("createGeometry failed", "err", err)
			return zygo.SexpNull, nil
		}
		return &sexpGeometry{id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (rt-create-blas (list g1 g2 ...))
	// -----------------------------------------------------------------------
	env.AddFunction("rt_create_blas", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			logger.Error("createBLAS: expected a list of geometries")
			return zygo.SexpNull, nil
		}
		items, err := sexpToSlice(args[0])
		if err != nil {
			logger.Error("createBLAS: geometries", "err", err)
			return zygo.SexpNull, nil
		}
		if len(items) == 0 {
			logger.Error("createBLAS: empty geometry list")
			return zygo.SexpNull, nil
		}

		geoms := make([]registry.ID, 0, len(items))
		for i, item := range items {
			g, ok := item.(*sexpGeometry)
			if !ok {
				logger.Error("createBLAS: invalid geometry", "index", i)
				return zygo.SexpNull, nil
			}
			geoms = append(geoms, g.id)
		}

		id, err := sess.CreateBLAS(geoms)
		if err != nil {
			logger.Error("createBLAS failed", "err", err)
			return zygo.SexpNull, nil
		}
		return &sexpBLAS{id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (rt-instance :blas b :transform [16 floats] :instance-id 0)
	// Mask and flags are not script-controllable: every instance is built
	// fully visible with zero flags.
	// -----------------------------------------------------------------------
	env.AddFunction("rt_instance", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		in := session.InstanceData{}

		if v, ok := pa.kw["blas"]; ok {
			if b, ok := v.(*sexpBLAS); ok {
				in.BLAS = b.id
			}
			// A non-BLAS value leaves the zero identifier, which fails
			// resolution when the TLAS is built.
		}
		in.Transform = transform16(pa.kw["transform"])
		if v, ok := pa.kw["instance-id"]; ok {
			u, err := toUint32(v)
			if err != nil {
				logger.Debug("instance: ignoring malformed instance-id", "err", err)
			} else {
				in.InstanceID = u
			}
		}
		return &sexpInstance{data: in}, nil
	})

	// -----------------------------------------------------------------------
	// (rt-create-tlas (list i1 i2 ...))
	// -----------------------------------------------------------------------
	env.AddFunction("rt_create_tlas", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		instances, ok := instanceList(logger, "createTLAS", args)
		if !ok {
			return zygo.SexpNull, nil
		}
		if len(instances) == 0 {
			logger.Error("createTLAS: empty instance list")
			return zygo.SexpNull, nil
		}
		id, err := sess.CreateTLAS(instances)
		if err != nil {
			logger.Error("createTLAS failed", "err", err)
			return zygo.SexpNull, nil
		}
		return &sexpTLAS{id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (rt-update-tlas t (list i1 i2 ...))
	// -----------------------------------------------------------------------
	env.AddFunction("rt_update_tlas", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			logger.Error("updateTLAS: expected (tlas, instances)")
			return zygo.SexpNull, nil
		}
		t, ok := args[0].(*sexpTLAS)
		if !ok {
			logger.Error("updateTLAS: invalid tlas")
			return zygo.SexpNull, nil
		}
		instances, ok := instanceList(logger, "updateTLAS", args[1:])
		if !ok {
			return zygo.SexpNull, nil
		}
		if err := sess.UpdateTLAS(t.id, instances); err != nil {
			logger.Error("updateTLAS failed", "err", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (rt-trace-rays :tlas t :width 640 :height 480 :target tgt
	//                :uniforms [f ...])
	// -----------------------------------------------------------------------
	env.AddFunction("rt_trace_rays", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		t, ok := pa.kw["tlas"].(*sexpTLAS)
		if !ok {
			logger.Error("traceRays: invalid or missing tlas")
			return zygo.SexpNull, nil
		}
		data := session.TraceData{
			TLAS:   t.id,
			Width:  defaults.Width,
			Height: defaults.Height,
		}

		if v, ok := pa.kw["width"]; ok {
			if u, err := toUint32(v); err == nil {
				data.Width = u
			}
		}
		if v, ok := pa.kw["height"]; ok {
			if u, err := toUint32(v); err == nil {
				data.Height = u
			}
		}
		if v, ok := pa.kw["target"]; ok {
			tgt, ok := v.(*sexpTarget)
			if !ok {
				logger.Error("traceRays: target: expected a render target")
				return zygo.SexpNull, nil
			}
			data.Output = tgt.target
		}
		if v, ok := pa.kw["uniforms"]; ok {
			u, err := uniformBytes(v)
			if err != nil {
				logger.Debug("traceRays: ignoring malformed uniforms", "err", err)
			} else {
				data.Uniforms = u
			}
		}

		if err := sess.TraceRays(data); err != nil {
			logger.Error("traceRays failed", "err", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (rt-destroy-geometry g) / (rt-destroy-blas b) / (rt-destroy-tlas t)
	// Destroying an unknown or already-destroyed reference is a no-op.
	// -----------------------------------------------------------------------
	env.AddFunction("rt_destroy_geometry", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) >= 1 {
			if g, ok := args[0].(*sexpGeometry); ok {
				sess.DestroyGeometry(g.id)
			}
		}
		return zygo.SexpNull, nil
	})
	env.AddFunction("rt_destroy_blas", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) >= 1 {
			if b, ok := args[0].(*sexpBLAS); ok {
				sess.DestroyBLAS(b.id)
			}
		}
		return zygo.SexpNull, nil
	})
	env.AddFunction("rt_destroy_tlas", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) >= 1 {
			if t, ok := args[0].(*sexpTLAS); ok {
				sess.DestroyTLAS(t.id)
			}
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (rt-create-target :width 640 :height 480)
	// -----------------------------------------------------------------------
	env.AddFunction("rt_create_target", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var width, height uint32
		if v, ok := pa.kw["width"]; ok {
			width, _ = toUint32(v)
		}
		if v, ok := pa.kw["height"]; ok {
			height, _ = toUint32(v)
		}
		if width == 0 || height == 0 {
			logger.Error("createTarget: width and height must be positive")
			return zygo.SexpNull, nil
		}
		return &sexpTarget{target: NewTarget(int(width), int(height))}, nil
	})

	// -----------------------------------------------------------------------
	// (rt-write-target tgt "out.png")
	// -----------------------------------------------------------------------
	env.AddFunction("rt_write_target", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			logger.Error("writeTarget: expected (target, path)")
			return zygo.SexpNull, nil
		}
		tgt, ok := args[0].(*sexpTarget)
		if !ok {
			logger.Error("writeTarget: expected a render target")
			return zygo.SexpNull, nil
		}
		path, err := toString(args[1])
		if err != nil {
			logger.Error("writeTarget: path", "err", err)
			return zygo.SexpNull, nil
		}
		if err := tgt.target.WritePNG(path); err != nil {
			logger.Error("writeTarget failed", "path", path, "err", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (mesh-box :x 1 :y 1 :z 1) / (mesh-cylinder :height 2 :radius 0.5)
	// Demo geometry sources for scripts.
	// -----------------------------------------------------------------------
	env.AddFunction("mesh_box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		x := optFloat(pa, "x", 1)
		y := optFloat(pa, "y", 1)
		z := optFloat(pa, "z", 1)
		m, err := meshgen.Box(x, y, z)
		if err != nil {
			logger.Error("meshBox failed", "err", err)
			return zygo.SexpNull, nil
		}
		return &sexpMesh{mesh: m}, nil
	})
	env.AddFunction("mesh_cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h := optFloat(pa, "height", 1)
		r := optFloat(pa, "radius", 0.5)
		m, err := meshgen.Cylinder(h, r)
		if err != nil {
			logger.Error("meshCylinder failed", "err", err)
			return zygo.SexpNull, nil
		}
		return &sexpMesh{mesh: m}, nil
	})
}

// instanceList marshals a script-side instance sequence, stopping at the
// first entry that is not an instance value.
func instanceList(logger *log.Logger, op string, args []zygo.Sexp) ([]session.InstanceData, bool) {
	if len(args) < 1 {
		logger.Error(op + ": expected a list of instances")
		return nil, false
	}
	items, err := sexpToSlice(args[0])
	if err != nil {
		logger.Error(op+": instances", "err", err)
		return nil, false
	}
	out := make([]session.InstanceData, 0, len(items))
	for i, item := range items {
		in, ok := item.(*sexpInstance)
		if !ok {
			logger.Error(op+": invalid instance", "index", i)
			return nil, false
		}
		out = append(out, in.data)
	}
	return out, true
}

// optFloat reads an optional numeric keyword argument.
func optFloat(pa kwArgs, name string, def float64) float64 {
	v, ok := pa.kw[name]
	if !ok {
		return def
	}
	f, err := toFloat64(v)
	if err != nil {
		return def
	}
	return f
}
