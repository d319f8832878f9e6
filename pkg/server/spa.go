package server

import (
	"bytes"
	stderrors "errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/espfs/webnav/pkg/routepath"
	"github.com/espfs/webnav/pkg/router"
)

const (
	cacheImmutable  = "public, max-age=31536000, immutable"
	cacheRevalidate = "no-cache"
)

// contentTyper is implemented by asset files that know their stored
// Content-Type, such as S3 objects.
type contentTyper interface {
	ContentType() string
}

// serveApp answers every GET that no other route claimed: an existing
// asset, or the index document for the history fallback.
func (s *Server) serveApp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if !routepath.HasBase(s.base, r.URL.Path) {
		http.NotFound(w, r)
		return
	}

	rel := routepath.StripBase(s.base, r.URL.Path)
	target := rel
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	resolved := s.matcher.Match(target)

	// Literal routes own their path; only other paths may name an asset.
	if !resolved.Found() || !s.literal[resolved.Matched.Path] {
		if name, ok := assetName(rel); ok && name != s.config.Index {
			served, err := s.serveAsset(w, r, name)
			if err != nil {
				s.logger.Error("asset read failed", "name", name, "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if served {
				return
			}
		}
	}
	s.serveIndex(w, r, resolved)
}

// assetName maps a stripped request path to an fs.FS name.
func assetName(rel string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+rel), "/")
	if name == "" || !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

// serveAsset writes the named file if it exists and is not a directory.
// It reports false when there is no such file.
func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, name string) (bool, error) {
	f, err := s.assets.Open(name)
	if err != nil {
		// Buckets read without s3:ListBucket answer 403 for missing keys.
		if stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, fs.ErrInvalid) || stderrors.Is(err, fs.ErrPermission) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	content, err := seekable(f)
	if err != nil {
		return false, err
	}

	if ct, ok := f.(contentTyper); ok && ct.ContentType() != "" {
		w.Header().Set("Content-Type", ct.ContentType())
	} else if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if s.manifest.IsFingerprinted(name) {
		w.Header().Set("Cache-Control", cacheImmutable)
	} else {
		w.Header().Set("Cache-Control", cacheRevalidate)
	}
	http.ServeContent(w, r, name, info.ModTime(), content)
	return true, nil
}

func seekable(f fs.File) (io.ReadSeeker, error) {
	if rs, ok := f.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// serveIndex writes the index document with 200 for a known route and
// 404 otherwise.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request, resolved router.ResolvedRoute) {
	data, err := fs.ReadFile(s.assets, s.config.Index)
	if err != nil {
		s.logger.Error("index document unavailable", "index", s.config.Index, "error", err)
		http.Error(w, "index document unavailable", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if resolved.Found() {
		w.Header().Set("X-Webnav-Route", resolved.Name())
	} else {
		status = http.StatusNotFound
		s.logger.Info("no route matches", "path", resolved.Path)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheRevalidate)
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("index write failed", "error", err)
	}
}
