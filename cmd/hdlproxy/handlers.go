package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hdlnet/hdlproxy/handle"
	"github.com/hdlnet/hdlproxy/handle/hdlvalue"
	"github.com/hdlnet/hdlproxy/resolver"
	"github.com/hdlnet/hdlproxy/storage"

	"github.com/labstack/echo/v4"
)

type GenericError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type GenericStatus struct {
	Daemon   string `json:"daemon"`
	Status   string `json:"status"`
	Message  string `json:"msg,omitempty"`
	Prefixes *int   `json:"prefixes,omitempty"`
}

type ValueView struct {
	Index       uint32 `json:"index"`
	Type        string `json:"type"`
	Data        string `json:"data"`
	TTLType     byte   `json:"ttlType"`
	TTL         uint32 `json:"ttl"`
	Timestamp   uint32 `json:"timestamp"`
	AdminRead   bool   `json:"adminRead"`
	AdminWrite  bool   `json:"adminWrite"`
	PublicRead  bool   `json:"publicRead"`
	PublicWrite bool   `json:"publicWrite"`
}

type ResolveOutput struct {
	Handle handle.Handle `json:"handle"`
	Values []ValueView   `json:"values"`
}

type HaveNAOutput struct {
	Prefix string `json:"prefix"`
	Exists bool   `json:"exists"`
}

type ListHandlesOutput struct {
	Prefix  handle.Prefix   `json:"prefix"`
	Handles []handle.Handle `json:"handles"`
}

type ListPrefixesOutput struct {
	Prefixes []resolver.Entry `json:"prefixes"`
}

func newValueView(v *hdlvalue.Value) ValueView {
	return ValueView{
		Index:       v.Index,
		Type:        v.TypeString(),
		Data:        v.DataString(),
		TTLType:     v.TTLType,
		TTL:         v.TTL,
		Timestamp:   v.Timestamp,
		AdminRead:   v.AdminRead,
		AdminWrite:  v.AdminWrite,
		PublicRead:  v.PublicRead,
		PublicWrite: v.PublicWrite,
	}
}

// handleParam parses the handle from the wildcard path. Echo matches on
// URL.RawPath when it is set and on the decoded URL.Path otherwise, so only
// the former needs unescaping.
func handleParam(c echo.Context) (handle.Handle, error) {
	raw := c.Param("*")
	if c.Request().URL.RawPath != "" {
		var err error
		raw, err = url.PathUnescape(raw)
		if err != nil {
			return "", err
		}
	}
	return handle.ParseHandle(raw)
}

// GET /api/v1/resolve/<handle>
func (srv *Server) HandleResolve(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), srv.requestTimeout)
	defer cancel()

	h, err := handleParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "InvalidHandleSyntax",
			Message: err.Error(),
		})
	}

	raw, err := srv.storage.GetRawHandleValues(ctx, h, nil, nil)
	if err != nil && errors.Is(err, storage.ErrHandleDoesNotExist) {
		return c.JSON(http.StatusNotFound, GenericError{
			Error:   "HandleNotFound",
			Message: fmt.Sprintf("handle not found: %s", h),
		})
	} else if err != nil {
		return c.JSON(http.StatusBadGateway, GenericError{
			Error:   "ResolutionFailed",
			Message: fmt.Sprintf("failed to resolve handle: %s", h),
		})
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEOctetStream) {
		return c.Blob(http.StatusOK, echo.MIMEOctetStream, raw[0])
	}

	out := ResolveOutput{Handle: h, Values: make([]ValueView, 0, len(raw))}
	for _, b := range raw {
		v, err := hdlvalue.Decode(b)
		if err != nil {
			return fmt.Errorf("decoding handle value: %w", err)
		}
		out.Values = append(out.Values, newValueView(v))
	}
	return c.JSON(http.StatusOK, out)
}

// GET /api/v1/na/<prefix>
func (srv *Server) HandleHaveNA(c echo.Context) error {
	ctx := c.Request().Context()
	prefix := c.Param("prefix")
	ok, err := srv.storage.HaveNA(ctx, prefix)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, HaveNAOutput{Prefix: prefix, Exists: ok})
}

// GET /api/v1/na/<prefix>/handles
func (srv *Server) HandleListHandles(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), srv.requestTimeout)
	defer cancel()

	prefix, err := handle.ParsePrefix(c.Param("prefix"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "InvalidPrefixSyntax",
			Message: err.Error(),
		})
	}

	handles, err := srv.storage.GetHandlesForNA(ctx, string(prefix))
	if err != nil {
		return c.JSON(http.StatusBadGateway, GenericError{
			Error:   "ResolutionFailed",
			Message: fmt.Sprintf("failed to list handles for prefix: %s", prefix),
		})
	}
	return c.JSON(http.StatusOK, ListHandlesOutput{Prefix: prefix, Handles: handles})
}

// GET /api/v1/prefixes
func (srv *Server) HandleListPrefixes(c echo.Context) error {
	return c.JSON(http.StatusOK, ListPrefixesOutput{Prefixes: srv.resolver.Registry().Entries()})
}

// POST /api/v1/admin/refresh
func (srv *Server) HandleRefresh(c echo.Context) error {
	if srv.disableRefresh {
		return c.JSON(http.StatusForbidden, GenericError{
			Error:   "RefreshDisabled",
			Message: "registry refresh endpoint is disabled on this server",
		})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), srv.requestTimeout)
	defer cancel()

	if err := srv.resolver.Refresh(ctx); err != nil {
		return c.JSON(http.StatusBadGateway, GenericError{
			Error:   "RefreshFailed",
			Message: err.Error(),
		})
	}
	n := srv.resolver.Registry().Len()
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "hdlproxy", Prefixes: &n})
}

func notImplemented(c echo.Context, err error) error {
	return c.JSON(http.StatusNotImplemented, GenericError{
		Error:   "NotImplemented",
		Message: err.Error(),
	})
}

// PUT /api/v1/handles/<handle>
func (srv *Server) HandleUpdateHandle(c echo.Context) error {
	ctx := c.Request().Context()
	h, err := handleParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "InvalidHandleSyntax",
			Message: err.Error(),
		})
	}
	return notImplemented(c, srv.storage.UpdateValue(ctx, h, nil))
}

// DELETE /api/v1/handles/<handle>
func (srv *Server) HandleDeleteHandle(c echo.Context) error {
	ctx := c.Request().Context()
	h, err := handleParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, GenericError{
			Error:   "InvalidHandleSyntax",
			Message: err.Error(),
		})
	}
	_, err = srv.storage.DeleteHandle(ctx, h)
	return notImplemented(c, err)
}

func (srv *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var errorMessage string
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		errorMessage = fmt.Sprintf("%s", he.Message)
	}
	if code >= 500 {
		srv.logger.Warn("hdlproxy-http-internal-error", "err", err)
	}
	c.JSON(code, GenericStatus{Status: "error", Daemon: "hdlproxy", Message: errorMessage})
}

func (srv *Server) HandleHealthCheck(c echo.Context) error {
	n := srv.resolver.Registry().Len()
	if n == 0 {
		return c.JSON(http.StatusServiceUnavailable, GenericStatus{Status: "error", Daemon: "hdlproxy", Message: "prefix registry is empty", Prefixes: &n})
	}
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "hdlproxy", Prefixes: &n})
}
