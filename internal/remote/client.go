// Package remote implements HTTP clients for the upstream services the order
// core depends on: the catalog (merchants and commodities), the identity
// service and, for the account aggregation, the order service itself.
//
// Every upstream answers with the Result envelope
// {"success":bool,"message":string,"data":...}. A failed envelope, a null
// payload or HTTP 404 mean the record does not exist. Network errors, timeouts
// and 5xx answers are retried with exponential backoff and reported as
// unavailable once the retries are exhausted.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/food-orders/pkg/httpmiddleware"
)

// maxBodySize caps upstream response bodies.
const maxBodySize = 4 << 20

// Config describes one upstream service.
type Config struct {
	BaseURL      string        `usage:"Base URL of the upstream service"`
	Timeout      time.Duration `default:"2s" usage:"Timeout of a single attempt"`
	Retries      uint64        `default:"2" usage:"Retries after the first attempt for transient failures"`
	RetryBackoff time.Duration `default:"100ms" usage:"Initial delay between retries"`
}

// Options carries the optional collaborators of a client.
type Options struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// Transport is the base round tripper; http.DefaultTransport when nil.
	Transport http.RoundTripper
}

var (
	// errNotFound marks a definite negative answer from an upstream.
	errNotFound = errors.New("not found")
	// errNoData is a successful envelope whose data member is null or absent.
	errNoData = fmt.Errorf("%w: empty data", errNotFound)
)

// client performs envelope GETs against one upstream and translates failures
// into the caller's domain sentinels.
type client struct {
	name    string
	baseURL string
	http    *http.Client
	timeout time.Duration
	retries uint64
	backoff time.Duration

	notFound    error
	unavailable error
}

func newClient(name string, cfg Config, opts Options, notFound, unavailable error) *client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	var otelOpts []otelhttp.Option
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
	}
	if opts.MeterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(opts.MeterProvider))
	}
	otelOpts = append(otelOpts, otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		return name + " " + r.Method + " " + r.URL.Path
	}))

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	delay := cfg.RetryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	return &client{
		name:        name,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        &http.Client{Transport: otelhttp.NewTransport(base, otelOpts...)},
		timeout:     timeout,
		retries:     cfg.Retries,
		backoff:     delay,
		notFound:    notFound,
		unavailable: unavailable,
	}
}

// getData fetches path and returns the raw "data" member of the envelope.
func (c *client) getData(ctx context.Context, path string, query url.Values) (jx.Raw, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	data, err := decodeEnvelope(body)
	if err != nil {
		return nil, c.translate(err)
	}
	return data, nil
}

// get fetches path and returns the body of a 2xx answer.
func (c *client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoff
	b.MaxElapsedTime = 0

	attempt := 0
	body, err := backoff.RetryWithData(func() ([]byte, error) {
		attempt++
		return c.attempt(ctx, u)
	}, backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx))
	if err != nil {
		if !errors.Is(err, errNotFound) {
			zctx.From(ctx).Warn("Upstream request failed",
				zap.String("upstream", c.name),
				zap.String("url", u),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
		}
		return nil, c.translate(err)
	}
	return body, nil
}

func (c *client) attempt(ctx context.Context, u string) ([]byte, error) {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, backoff.Permanent(errors.Wrap(err, "create request"))
	}
	req.Header.Set("Accept", "application/json")
	if id := httpmiddleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(httpmiddleware.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return body, nil
	case code == http.StatusNotFound:
		return nil, backoff.Permanent(errors.Wrapf(errNotFound, "status %d", code))
	case code == http.StatusTooManyRequests || code >= 500:
		return nil, errors.Errorf("status %d", code)
	default:
		return nil, backoff.Permanent(errors.Errorf("unexpected status %d", code))
	}
}

// translate maps a transport or envelope failure onto the domain sentinels.
// Anything that is not a definite "not found" counts as unavailable.
func (c *client) translate(err error) error {
	if errors.Is(err, errNotFound) {
		return fmt.Errorf("%s: %w: %w", c.name, c.notFound, err)
	}
	return fmt.Errorf("%s: %w: %w", c.name, c.unavailable, err)
}

// decodeEnvelope validates a Result envelope and returns its data member.
func decodeEnvelope(body []byte) (jx.Raw, error) {
	var (
		success bool
		message string
		data    jx.Raw
	)
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			v, err := d.Bool()
			success = v
			return err
		case "message":
			v, err := decodeOptString(d)
			message = v
			return err
		case "data":
			v, err := d.Raw()
			data = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}

	if !success {
		return nil, errors.Wrapf(errNotFound, "upstream reported failure: %q", message)
	}
	if isNull(data) {
		return nil, errNoData
	}
	return data, nil
}

func isNull(raw jx.Raw) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decodeOptString reads a string that may be null.
func decodeOptString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodeID reads an integer id that upstreams may encode as number or string.
func decodeID(d *jx.Decoder) (int64, error) {
	switch d.Next() {
	case jx.Null:
		return 0, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse id %q", s)
		}
		return id, nil
	default:
		return d.Int64()
	}
}

// decodeDecimal reads a money amount sent as JSON number or string. Valid is
// false when the member is null.
func decodeDecimal(d *jx.Decoder) (decimal.NullDecimal, error) {
	var s string
	switch d.Next() {
	case jx.Null:
		return decimal.NullDecimal{}, d.Null()
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		s = v
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		s = string(n)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, errors.Wrapf(err, "parse amount %q", s)
	}
	return decimal.NewNullDecimal(v), nil
}
