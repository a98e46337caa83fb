package formula

import (
	"strings"

	"github.com/cloudmanic/skyclerk-install/internal/platform"
)

// ResolveURL returns the download URL for key.
// There is no fallback: a missing key is an UnsupportedPlatformError.
func (t ArtifactTable) ResolveURL(key platform.Key) (string, error) {
	a, ok := t[key]
	if !ok {
		return "", &UnsupportedPlatformError{Key: key, Supported: t.Keys()}
	}
	return a.URL, nil
}

// DeriveBinaryName returns the substring after the last "/" in url.
func DeriveBinaryName(url string) (string, error) {
	i := strings.LastIndex(url, "/")
	if i < 0 {
		return "", &MalformedURLError{URL: url, Reason: "no path separator"}
	}
	name := url[i+1:]
	if name == "" {
		return "", &MalformedURLError{URL: url, Reason: "empty file name"}
	}
	return name, nil
}

// InstallSpec resolves the artifact for key.
func (f *Formula) InstallSpec(key platform.Key) (*InstallSpec, error) {
	url, err := f.Artifacts.ResolveURL(key)
	if err != nil {
		return nil, err
	}

	name, err := DeriveBinaryName(url)
	if err != nil {
		return nil, err
	}

	return &InstallSpec{
		SourceURL:       url,
		LocalBinaryName: name,
		SHA256:          f.Artifacts[key].SHA256,
	}, nil
}
