// Package sample wires config, logging, the window, the renderer and the
// frame driver together. Every binary under cmd/ is one Definition handed to
// Main.
package sample

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/vkngwrapper/tutorials/internal/camera"
	"github.com/vkngwrapper/tutorials/internal/config"
	"github.com/vkngwrapper/tutorials/internal/frame"
	"github.com/vkngwrapper/tutorials/internal/logx"
	"github.com/vkngwrapper/tutorials/internal/mesh"
	"github.com/vkngwrapper/tutorials/internal/renderer"
	"github.com/vkngwrapper/tutorials/internal/texture"
	"github.com/vkngwrapper/tutorials/internal/window"
)

// CameraKind selects what fills the uniform buffer.
type CameraKind int

const (
	NoCamera CameraKind = iota
	SpinCamera
	OrbitCamera
)

// TextureAsset is an image file under the assets directory bound to a
// fragment shader sampler.
type TextureAsset struct {
	Binding int
	Path    string
}

// Definition is everything that distinguishes one sample from another.
type Definition struct {
	Name    string
	Title   string
	Program string

	// Geometry produces the mesh to draw, reading from the assets directory
	// when needed. Nil means the vertex shader generates its own triangle.
	Geometry func(ctx context.Context, assetsDir string) (*mesh.Mesh, error)
	Textures []TextureAsset
	Camera   CameraKind

	Depth       bool
	Mipmaps     bool
	Multisample bool
}

// Builtin returns a Geometry that ignores the assets directory.
func Builtin(build func() *mesh.Mesh) func(context.Context, string) (*mesh.Mesh, error) {
	return func(context.Context, string) (*mesh.Mesh, error) {
		return build(), nil
	}
}

// Model returns a Geometry loading a Wavefront file relative to the assets
// directory, together with the material library of the same name next to
// it when there is one.
func Model(path string) func(context.Context, string) (*mesh.Mesh, error) {
	return func(ctx context.Context, assetsDir string) (*mesh.Mesh, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		objPath := filepath.Join(assetsDir, path)
		f, err := os.Open(objPath)
		if err != nil {
			return nil, errors.Wrap(err, "open model")
		}
		defer f.Close()

		mtl, err := openMaterials(objPath)
		if err != nil {
			return nil, err
		}
		var mtlReader io.Reader
		if mtl != nil {
			defer mtl.Close()
			mtlReader = mtl
		}

		m, err := mesh.LoadOBJ(f, mtlReader)
		if err != nil {
			return nil, errors.Wrapf(err, "load model %s", path)
		}
		return m, nil
	}
}

// openMaterials opens the .mtl file beside objPath. A missing file is not an
// error; the result is nil then.
func openMaterials(objPath string) (*os.File, error) {
	mtlPath := strings.TrimSuffix(objPath, filepath.Ext(objPath)) + ".mtl"
	f, err := os.Open(mtlPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open material library")
	}
	return f, nil
}

// Main runs def until its window closes and exits the process with status 1
// on failure.
func Main(def Definition) {
	// SDL and the Vulkan queue calls must stay on the thread that created them.
	runtime.LockOSThread()

	cfg, err := config.Load(def.Name, os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", def.Name, err)
		os.Exit(2)
	}

	logger := logx.New(cfg.LogLevel(), os.Stderr).With("sample", def.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = Run(ctx, def, cfg, logger)
	stop()

	if err != nil {
		logger.Error(fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}

// Assets is the decoded, device-independent data a sample draws.
type Assets struct {
	Mesh     *mesh.Mesh
	Textures []renderer.Texture
}

// LoadAssets decodes the geometry and every texture concurrently. The first
// failure cancels the decodes that have not started yet.
func LoadAssets(ctx context.Context, def Definition, assetsDir string) (Assets, error) {
	assets := Assets{
		Textures: make([]renderer.Texture, len(def.Textures)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	if def.Geometry != nil {
		g.Go(func() error {
			m, err := def.Geometry(gctx, assetsDir)
			if err != nil {
				return err
			}
			assets.Mesh = m
			return nil
		})
	}

	for i, tex := range def.Textures {
		g.Go(func() error {
			img, err := decodeTexture(gctx, filepath.Join(assetsDir, tex.Path))
			if err != nil {
				return err
			}
			assets.Textures[i] = renderer.Texture{Binding: tex.Binding, Image: img}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Assets{}, errors.Wrap(err, "load assets")
	}
	return assets, nil
}

func decodeTexture(ctx context.Context, path string) (texture.Image, error) {
	if err := ctx.Err(); err != nil {
		return texture.Image{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return texture.Image{}, errors.Wrap(err, "open texture")
	}
	defer f.Close()

	img, err := texture.Decode(f)
	if err != nil {
		return texture.Image{}, errors.Wrapf(err, "decode texture %s", path)
	}
	return img, nil
}

// Run opens the window, brings up the renderer and drives frames until the
// window closes or ctx is cancelled.
func Run(ctx context.Context, def Definition, cfg config.Config, logger *slog.Logger) error {
	assets, err := LoadAssets(ctx, def, cfg.AssetsDir)
	if err != nil {
		return err
	}

	resize := &frame.ResizeSignal{}
	win, err := window.Open(def.Title, cfg.Width, cfg.Height, resize, logger)
	if err != nil {
		return err
	}
	defer win.Destroy()

	cam, handler := newCamera(def.Camera, win, cfg)
	win.SetHandler(handler)

	r, err := renderer.New(win, renderer.Options{
		AppName:       def.Title,
		Program:       def.Program,
		AssetsDir:     cfg.AssetsDir,
		Validation:    cfg.Validation,
		PipelineCache: cfg.PipelineCache,
		Mesh:          assets.Mesh,
		Camera:        cam,
		Textures:      assets.Textures,
		Depth:         def.Depth,
		Mipmaps:       def.Mipmaps,
		Multisample:   def.Multisample,
	}, logger)
	if err != nil {
		return errors.Wrap(err, "create renderer")
	}
	defer r.Destroy()

	driver := frame.NewDriver(r, win, resize, logger)
	err = driver.Run(ctx, win.PollEvents)
	logger.Info("run finished", "rebuilds", driver.Generation())
	return err
}

func newCamera(kind CameraKind, win *window.Window, cfg config.Config) (camera.Camera, window.Handler) {
	switch kind {
	case SpinCamera:
		return camera.NewSpin(nil), &Controls{Window: win}
	case OrbitCamera:
		orbit := camera.NewOrbit(nil, cfg.Width, cfg.Height)
		return orbit, &OrbitControls{Controls: Controls{Window: win}, Orbit: orbit}
	default:
		return nil, &Controls{Window: win}
	}
}
