package handlers

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/upb/sketch-gateway/utils"
	"go.uber.org/zap"
)

// CodeImageError is returned when an image cannot be fetched from the backend
const CodeImageError = "IMAGE_ERROR"

// ImageProxy forwards the backend's static image mounts, /generated/* and /reference-images/*
type ImageProxy struct {
	proxy  *httputil.ReverseProxy
	logger *zap.Logger
}

// NewImageProxy creates a proxy to backendURL. Paths are forwarded unchanged.
func NewImageProxy(backendURL string, logger *zap.Logger) (*ImageProxy, error) {
	target, err := url.Parse(backendURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", backendURL)
	}

	p := &ImageProxy{logger: logger}
	p.proxy = &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.Out.Host = target.Host
			// Credentials for the gateway are not meant for the backend
			r.Out.Header.Del("Authorization")
			r.Out.Header.Del("Cookie")
		},
		ErrorHandler: p.handleError,
	}
	return p, nil
}

// ServeHTTP handles GET on the image mounts
func (p *ImageProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.proxy.ServeHTTP(w, r)
}

func (p *ImageProxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Warn("image proxy failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	_ = utils.WriteInternalServerError(w, CodeImageError, "image unavailable")
}
