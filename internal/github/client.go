// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/google/go-github/v67/github"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/jmgilman/go/errors"
	"golang.org/x/oauth2"
)

const (
	// PublicAPIURL is the github.com REST endpoint.
	PublicAPIURL = "https://api.github.com"
	// MaxMemberSize caps the bytes written for one archive member.
	MaxMemberSize = 2 * 1024 * 1024

	maxRedirects = 10
	pageSize     = 100
)

// Client wraps a go-github client plus the plain HTTP client used to follow
// artifact download redirects.
type Client struct {
	gh   *github.Client
	http *http.Client
}

// NewClient returns a Client authenticated with token. A non-public apiURL is
// treated as a GitHub Enterprise Server endpoint.
func NewClient(ctx context.Context, token, apiURL string) (*Client, error) {
	if token == "" {
		err := errors.New(errors.CodeInvalidInput, "no value provided for the GITHUB_TOKEN environment variable")
		return nil, errors.WithContext(err, "field", "token")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, cleanhttp.DefaultPooledClient())
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))

	if apiURL != "" && strings.TrimRight(apiURL, "/") != PublicAPIURL {
		var err error
		gh, err = gh.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "invalid GitHub API URL %q", apiURL)
		}
	}

	return NewWithClient(gh, cleanhttp.DefaultClient()), nil
}

// NewWithClient wraps an existing go-github client. A nil httpClient uses a
// fresh cleanhttp client.
func NewWithClient(gh *github.Client, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = cleanhttp.DefaultClient()
	}
	return &Client{gh: gh, http: httpClient}
}

// ArtifactMatching returns the first unexpired artifact named key.
func (c *Client) ArtifactMatching(ctx context.Context, owner, repo, key string) (*github.Artifact, error) {
	opts := &github.ListArtifactsOptions{
		Name:        github.String(key),
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for {
		list, resp, err := c.gh.Actions.ListArtifacts(ctx, owner, repo, opts)
		if err != nil {
			return nil, wrapError(err, resp, "failed to list artifacts")
		}

		for _, a := range list.Artifacts {
			if a.GetName() == key && !a.GetExpired() {
				return a, nil
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	err := errors.Newf(errors.CodeNotFound, "%s: could not find a matching artifact", key)
	return nil, errors.WithContext(err, "repository", owner+"/"+repo)
}

// WriteArtifactToPath downloads the artifact's zip archive and extracts the
// member called name into dest. It returns the paths written.
func (c *Client) WriteArtifactToPath(ctx context.Context, owner, repo string, artifact *github.Artifact, name, dest string) ([]string, error) {
	u, resp, err := c.gh.Actions.DownloadArtifact(ctx, owner, repo, artifact.GetID(), maxRedirects)
	if err != nil {
		return nil, wrapError(err, resp, "failed to resolve artifact download")
	}
	log.Debugf("downloading artifact %d from %s", artifact.GetID(), u.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	dl, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetwork, "failed to download artifact")
	}
	defer dl.Body.Close()

	if dl.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.CodeNetwork, "artifact download returned %s", dl.Status)
	}

	raw, err := io.ReadAll(dl.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetwork, "failed to read artifact")
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("artifact %d is not a zip archive: %w", artifact.GetID(), err)
	}

	return unzip(zr, name, dest)
}

// unzip writes the members of zr called name under dest.
func unzip(zr *zip.Reader, name, dest string) ([]string, error) {
	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}

		target := filepath.Join(root, f.Name) // #nosec G305 -- checked below
		if !strings.HasPrefix(target, filepath.Clean(root)+string(os.PathSeparator)) {
			return written, errors.Newf(errors.CodeInvalidInput, "%s: illegal file path", target)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, err
			}
			continue
		}

		if err := writeMember(f, target); err != nil {
			return written, err
		}
		written = append(written, target)
	}

	if len(written) == 0 {
		return nil, errors.Newf(errors.CodeNotFound, "%s: not present in artifact", name)
	}
	return written, nil
}

func writeMember(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, io.LimitReader(rc, MaxMemberSize)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// wrapError attaches an error code derived from the response status.
func wrapError(err error, resp *github.Response, message string) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		status = ghErr.Response.StatusCode
	}

	switch status {
	case http.StatusNotFound:
		return errors.Wrap(err, errors.CodeNotFound, message)
	case http.StatusUnauthorized:
		return errors.Wrap(err, errors.CodeUnauthorized, message)
	case http.StatusForbidden:
		return errors.Wrap(err, errors.CodeForbidden, message)
	default:
		return errors.Wrap(err, errors.CodeNetwork, message)
	}
}
