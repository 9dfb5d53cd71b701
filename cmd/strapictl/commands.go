package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/itchan-dev/strapikit/apiclient"
	"github.com/itchan-dev/strapikit/shared/api"
	"github.com/itchan-dev/strapikit/shared/validation"
)

var errUsage = errors.New("usage")

type app struct {
	client       *apiclient.APIClient
	out          io.Writer
	readPassword func() (string, error)
}

type entry = map[string]any

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	switch {
	case cmd == "login" && len(args) == 1:
		return a.login(ctx, args[0])
	case cmd == "logout" && len(args) == 0:
		return a.client.Logout(ctx)
	case cmd == "me" && len(args) == 0:
		return a.me(ctx)
	case cmd == "find" && (len(args) == 1 || len(args) == 2):
		filters := ""
		if len(args) == 2 {
			filters = args[1]
		}
		return a.find(ctx, args[0], filters)
	case cmd == "get" && len(args) == 2:
		return a.get(ctx, args[0], args[1])
	case cmd == "upload" && len(args) > 0:
		return a.upload(ctx, args)
	}
	return errUsage
}

func (a *app) login(ctx context.Context, identifier string) error {
	password, err := a.readPassword()
	if err != nil {
		return err
	}
	result, err := a.client.Login(ctx, api.LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return describe(err)
	}
	if result.User.Status != apiclient.FetchOK {
		return fmt.Errorf("signed in but the user could not be loaded")
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", result.User.Profile.Email())
	return nil
}

func (a *app) me(ctx context.Context) error {
	result := a.client.FetchUser(ctx)
	switch result.Status {
	case apiclient.FetchNoToken:
		return errors.New("not logged in")
	case apiclient.FetchUnauthorized:
		return errors.New("session expired, log in again")
	case apiclient.FetchAborted:
		return errors.New("interrupted")
	}
	return a.print(result.Profile)
}

func (a *app) find(ctx context.Context, contentType, filtersJSON string) error {
	var params *api.Params
	if filtersJSON != "" {
		var filters api.Filters
		if err := json.Unmarshal([]byte(filtersJSON), &filters); err != nil {
			return fmt.Errorf("filters must be a json object: %w", err)
		}
		params = &api.Params{Filters: filters}
	}

	resp, err := apiclient.Find[entry](ctx, a.client, contentType, params)
	if err != nil {
		return describe(err)
	}
	return a.print(resp)
}

func (a *app) get(ctx context.Context, contentType, id string) error {
	resp, err := apiclient.FindOne[entry](ctx, a.client, contentType, id, nil)
	if err != nil {
		return describe(err)
	}
	return a.print(resp)
}

func (a *app) upload(ctx context.Context, paths []string) error {
	files := make([]apiclient.File, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		name := filepath.Base(path)
		files = append(files, apiclient.File{
			Name:        name,
			ContentType: validation.DetectMimeType(name, ""),
			Body:        f,
		})
	}

	uploaded, err := a.client.Media().UploadMultiple(ctx, files, apiclient.UploadOptions{})
	if err != nil {
		return describe(err)
	}
	return a.print(uploaded)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// describe prefers the CMS error message over the bare status line.
func describe(err error) error {
	if resp, ok := apiclient.ParseError(err); ok {
		return fmt.Errorf("%s (%d %s)", resp.Error.Message, resp.Error.Status, resp.Error.Name)
	}
	return err
}
