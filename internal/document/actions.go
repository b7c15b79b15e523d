package document

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/middleware"
	"github.com/dshills/fluxstate/internal/store"
)

// Document action tags.
const (
	TagSet     action.Tag = "document.set"
	TagSetRaw  action.Tag = "document.set_raw"
	TagDelete  action.Tag = "document.delete"
	TagReplace action.Tag = "document.replace"
	TagLoad    action.Tag = "document.load"
)

// Set stores Value at Path.
type Set struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// ActionTag implements action.Action.
func (Set) ActionTag() action.Tag { return TagSet }

// SetRaw stores the JSON text at Path.
type SetRaw struct {
	Path string `json:"path"`
	JSON string `json:"json"`
}

// ActionTag implements action.Action.
func (SetRaw) ActionTag() action.Tag { return TagSetRaw }

// Delete removes Path.
type Delete struct {
	Path string `json:"path"`
}

// ActionTag implements action.Action.
func (Delete) ActionTag() action.Tag { return TagDelete }

// Replace swaps the whole document.
type Replace struct {
	JSON string `json:"json"`
}

// ActionTag implements action.Action.
func (Replace) ActionTag() action.Tag { return TagReplace }

// Load asks for File to be read and stored at Path.
// It has no reducer; a loader middleware turns it into a SetRaw.
type Load struct {
	File string `json:"file"`
	Path string `json:"path"`
}

// ActionTag implements action.Action.
func (Load) ActionTag() action.Tag { return TagLoad }

// Reducers returns the document reducers. Each accepts its typed action or an
// action.Named carrying the same fields in its payload.
func Reducers() []store.Reducer[Document] {
	return []store.Reducer[Document]{
		store.Bind(TagSet, func(_ context.Context, a action.Action, d Document) (Document, error) {
			set, err := decodeSet(a)
			if err != nil {
				return d, err
			}
			return d.Set(set.Path, set.Value)
		}),
		store.Bind(TagSetRaw, func(_ context.Context, a action.Action, d Document) (Document, error) {
			set, err := decodeSetRaw(a)
			if err != nil {
				return d, err
			}
			if set.Path == "" {
				return d, ErrEmptyPath
			}
			return d.SetRaw(set.Path, set.JSON)
		}),
		store.Bind(TagDelete, func(_ context.Context, a action.Action, d Document) (Document, error) {
			del, err := decodeDelete(a)
			if err != nil {
				return d, err
			}
			return d.Delete(del.Path)
		}),
		store.Bind(TagReplace, func(_ context.Context, a action.Action, d Document) (Document, error) {
			rep, err := decodeReplace(a)
			if err != nil {
				return d, err
			}
			return ParseString(rep.JSON)
		}),
	}
}

// LoadFrom returns a loader that reads Load.File from fsys.
// Use it with middleware.Loader[Document, Load].
func LoadFrom(fsys fs.FS) middleware.LoadFunc[Load] {
	return func(ctx context.Context, req Load) (action.Action, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(fsys, req.File)
		if err != nil {
			return nil, err
		}
		if _, err := Parse(data); err != nil {
			return nil, fmt.Errorf("%s: %w", req.File, err)
		}
		if req.Path == "" {
			return Replace{JSON: string(data)}, nil
		}
		return SetRaw{Path: req.Path, JSON: string(data)}, nil
	}
}

// LoaderMiddleware wires LoadFrom into store middleware.
func LoaderMiddleware(fsys fs.FS) middleware.Middleware[Document] {
	return middleware.Loader[Document](LoadFrom(fsys))
}

func decodeSet(a action.Action) (Set, error) {
	switch v := a.(type) {
	case Set:
		return v, nil
	case action.Named:
		path, err := stringField(v, "path")
		if err != nil {
			return Set{}, err
		}
		value, _ := v.Get("value")
		return Set{Path: path, Value: value}, nil
	}
	return Set{}, fmt.Errorf("%w: %T", store.ErrActionType, a)
}

func decodeSetRaw(a action.Action) (SetRaw, error) {
	switch v := a.(type) {
	case SetRaw:
		return v, nil
	case action.Named:
		path, err := stringField(v, "path")
		if err != nil {
			return SetRaw{}, err
		}
		raw, err := stringField(v, "json")
		if err != nil {
			return SetRaw{}, err
		}
		return SetRaw{Path: path, JSON: raw}, nil
	}
	return SetRaw{}, fmt.Errorf("%w: %T", store.ErrActionType, a)
}

func decodeDelete(a action.Action) (Delete, error) {
	switch v := a.(type) {
	case Delete:
		return v, nil
	case action.Named:
		path, err := stringField(v, "path")
		if err != nil {
			return Delete{}, err
		}
		return Delete{Path: path}, nil
	}
	return Delete{}, fmt.Errorf("%w: %T", store.ErrActionType, a)
}

func decodeReplace(a action.Action) (Replace, error) {
	switch v := a.(type) {
	case Replace:
		return v, nil
	case action.Named:
		raw, err := stringField(v, "json")
		if err != nil {
			return Replace{}, err
		}
		return Replace{JSON: raw}, nil
	}
	return Replace{}, fmt.Errorf("%w: %T", store.ErrActionType, a)
}

func stringField(n action.Named, key string) (string, error) {
	v, ok := n.Get(key)
	if !ok {
		return "", fmt.Errorf("%w: %s: missing %q", ErrBadPayload, n.Name, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s: %q is %T, not string", ErrBadPayload, n.Name, key, v)
	}
	return s, nil
}
