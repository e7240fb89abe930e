package install

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/qiniu/x/log"

	"github.com/goplus/stager/internal/fsutil"
	"github.com/goplus/stager/pkgs/artifact"
)

// CompileFunc byte-compiles a python source file in place.
type CompileFunc func(ctx context.Context, file string) error

// InPlace installs artifacts into an editable source checkout, whose root
// is the Namespace package itself.
type InPlace struct {
	Root      string
	Namespace string
	Ctx       *artifact.Context

	// Compile is required for descriptors that need a loader shim.
	Compile CompileFunc
}

// Install resolves d and copies it into the checkout, overwriting any
// existing copy. A loader shim is generated for extensions that ask for
// one.
func (p *InPlace) Install(ctx context.Context, d *artifact.Descriptor) (string, error) {
	src, err := artifact.Resolve(d, p.Ctx)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(p.Root, filepath.FromSlash(p.Dir(d)))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, path.Base(stagedPath(d, src, p.Ctx.ExtSuffix)))
	log.Infof("copying %s -> %s", src, dst)
	if err := fsutil.CopyWritable(src, dst); err != nil {
		return "", err
	}
	if d.Kind == artifact.ExtensionModule && d.NeedsStub {
		if err := p.writeStub(ctx, d, dst); err != nil {
			return "", err
		}
	}
	return dst, nil
}

// Dir returns the slash-separated directory, relative to Root, that d is
// copied into.
func (p *InPlace) Dir(d *artifact.Descriptor) string {
	if d.Kind == artifact.ExtensionModule {
		parts := strings.Split(d.Dest, ".")
		parts = parts[:len(parts)-1]
		if len(parts) > 0 && parts[0] == p.Namespace {
			parts = parts[1:]
		}
		return path.Join(parts...)
	}
	dir := strings.TrimPrefix(d.Dest, p.Namespace+"/")
	if !strings.HasSuffix(dir, "/") {
		dir = path.Dir(dir)
	}
	return strings.TrimSuffix(path.Clean(dir), "/")
}

var stubTemplate = template.Must(template.New("stub").Parse(`def __bootstrap__():
    global __bootstrap__, __file__, __loader__
    import importlib.util, os
    __file__ = os.path.join(os.path.dirname(os.path.abspath(__file__)), {{printf "%q" .}})
    del __bootstrap__
    if "__loader__" in globals():
        del __loader__
    spec = importlib.util.spec_from_file_location(__name__, __file__)
    mod = importlib.util.module_from_spec(spec)
    spec.loader.exec_module(mod)


__bootstrap__()
`))

// writeStub writes the loader shim for the extension at lib, compiles it
// and removes the source so that only the compiled shim remains.
func (p *InPlace) writeStub(ctx context.Context, d *artifact.Descriptor, lib string) error {
	if p.Compile == nil {
		return fmt.Errorf("%s: no python compiler for the loader shim", d.Name)
	}
	var buf bytes.Buffer
	if err := stubTemplate.Execute(&buf, filepath.Base(lib)); err != nil {
		return err
	}
	mod := d.Dest[strings.LastIndex(d.Dest, ".")+1:]
	stub := filepath.Join(filepath.Dir(lib), mod+".py")
	log.Infof("writing stub loader %s", stub)
	if err := os.WriteFile(stub, buf.Bytes(), 0o644); err != nil {
		return err
	}
	defer os.Remove(stub)
	if err := p.Compile(ctx, stub); err != nil {
		return fmt.Errorf("compiling %s: %w", stub, err)
	}
	return nil
}
