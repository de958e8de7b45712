package afip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	methodLastVoucher = "FECompUltimoAutorizado"
	methodAuthorize   = "FECAESolicitar"

	resultApproved = "A"

	// conceptProducts and finalConsumerVAT are fixed by the simplified
	// (no VAT breakdown) voucher this client submits.
	conceptProducts  = 1
	finalConsumerVAT = 5

	defaultTimeout  = 5 * time.Second
	defaultTokenTTL = 11 * time.Hour
)

// Config holds the gateway endpoint and long-lived credentials.
type Config struct {
	BaseURL     string        // REST bridge base URL
	AccessToken string        // bearer token for the bridge
	Environment string        // dev or prod
	TaxID       string        // CUIT the certificate belongs to
	WSID        string        // web service id, usually wsfe
	Timeout     time.Duration // per-call timeout; keep it short
	TokenTTL    time.Duration // how long a session is reused
}

// Client talks to the gateway.  It is safe for concurrent use.
type Client struct {
	cfg    Config
	http   *resty.Client
	tokens TokenCache
	tracer trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithTokenCache reuses sessions across issuances.
func WithTokenCache(tc TokenCache) Option {
	return func(c *Client) {
		if tc != nil {
			c.tokens = tc
		}
	}
}

// NewClient builds a gateway client.  Missing timeout and TTL values get
// defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.WSID == "" {
		cfg.WSID = "wsfe"
	}
	if cfg.Environment == "" {
		cfg.Environment = "dev"
	}
	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.AccessToken != "" {
		hc.SetAuthToken(cfg.AccessToken)
	}
	c := &Client{
		cfg:    cfg,
		http:   hc,
		tokens: noCache{},
		tracer: otel.Tracer("github.com/iliyamo/hotel-reservation-engine/internal/afip"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue runs the full protocol for one voucher.  Any transport or parse
// error at any step yields OutcomeFailed; a well-formed answer that is not
// an approval yields OutcomeDeclined.  A cached session the gateway rejects
// is evicted and the protocol is retried once with a fresh one.
func (c *Client) Issue(ctx context.Context, req VoucherRequest) Result {
	res, cached := c.issue(ctx, req)
	if cached && sessionRejected(res.Err) {
		log.Printf("[afip] cached session rejected, re-authenticating: %v", res.Err)
		res, _ = c.issue(ctx, req)
	}
	return res
}

func (c *Client) issue(ctx context.Context, req VoucherRequest) (Result, bool) {
	sess, cached, err := c.session(ctx)
	if err != nil {
		return Failure(fmt.Errorf("authenticate: %w", err)), false
	}
	last, err := c.LastVoucherNumber(ctx, sess, req.IssuerTaxID, req.PointOfSale, req.VoucherType)
	if err != nil {
		c.evictIfRejected(ctx, err)
		return Failure(fmt.Errorf("last voucher: %w", err)), cached
	}
	auth, err := c.Authorize(ctx, sess, req, last+1)
	if err != nil {
		c.evictIfRejected(ctx, err)
		return Failure(fmt.Errorf("authorize: %w", err)), cached
	}
	if !auth.Approved {
		return Result{Outcome: OutcomeDeclined, Authorization: auth}, cached
	}
	return Result{Outcome: OutcomeApproved, Authorization: auth}, cached
}

// sessionRejected reports whether err is the gateway refusing the session.
func sessionRejected(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
}

func (c *Client) evictIfRejected(ctx context.Context, err error) {
	if sessionRejected(err) {
		c.tokens.Delete(ctx, c.sessionKey())
	}
}

type authRequest struct {
	Environment string `json:"environment"`
	TaxID       int64  `json:"tax_id"`
	WSID        string `json:"wsid"`
}

// Authenticate exchanges the configured credentials for a session,
// reusing a cached one when available.
func (c *Client) Authenticate(ctx context.Context) (Session, error) {
	s, _, err := c.session(ctx)
	return s, err
}

func (c *Client) session(ctx context.Context) (Session, bool, error) {
	key := c.sessionKey()
	if s, ok := c.tokens.Get(ctx, key); ok {
		return s, true, nil
	}

	ctx, span := c.tracer.Start(ctx, "afip.authenticate")
	defer span.End()

	taxID, err := parseTaxID(c.cfg.TaxID)
	if err != nil {
		return Session{}, false, fail(span, err)
	}
	var out Session
	if err := c.post(ctx, "/auth", authRequest{
		Environment: c.cfg.Environment,
		TaxID:       taxID,
		WSID:        c.cfg.WSID,
	}, &out); err != nil {
		return Session{}, false, fail(span, err)
	}
	if out.Token == "" || out.Sign == "" {
		return Session{}, false, fail(span, errors.New("afip /auth: missing token or sign"))
	}
	c.tokens.Set(ctx, key, out, c.cfg.TokenTTL)
	return out, false, nil
}

type authParams struct {
	Token string `json:"Token"`
	Sign  string `json:"Sign"`
	Cuit  int64  `json:"Cuit"`
}

type gatewayCall struct {
	Environment string `json:"environment"`
	WSID        string `json:"wsid"`
	Method      string `json:"method"`
	Params      any    `json:"params"`
}

type lastVoucherParams struct {
	Auth     authParams `json:"Auth"`
	PtoVta   int        `json:"PtoVta"`
	CbteTipo int        `json:"CbteTipo"`
}

type lastVoucherResponse struct {
	Result *struct {
		CbteNro *int64 `json:"CbteNro"`
	} `json:"FECompUltimoAutorizadoResult"`
}

// LastVoucherNumber returns the last authorized number for the point of
// sale and voucher type.  A missing number is reported as 0.
func (c *Client) LastVoucherNumber(ctx context.Context, s Session, issuerTaxID string, pointOfSale int, voucherType string) (int64, error) {
	ctx, span := c.tracer.Start(ctx, "afip.last_voucher", trace.WithAttributes(
		attribute.Int("afip.point_of_sale", pointOfSale),
		attribute.String("afip.voucher_type", voucherType),
	))
	defer span.End()

	auth, err := c.authParams(s, issuerTaxID)
	if err != nil {
		return 0, fail(span, err)
	}
	var out lastVoucherResponse
	if err := c.post(ctx, "/requests", gatewayCall{
		Environment: c.cfg.Environment,
		WSID:        c.cfg.WSID,
		Method:      methodLastVoucher,
		Params: lastVoucherParams{
			Auth:     auth,
			PtoVta:   pointOfSale,
			CbteTipo: VoucherTypeCode(voucherType),
		},
	}, &out); err != nil {
		return 0, fail(span, err)
	}
	if out.Result == nil {
		return 0, fail(span, errors.New("afip: missing FECompUltimoAutorizadoResult"))
	}
	if out.Result.CbteNro == nil {
		return 0, nil
	}
	return *out.Result.CbteNro, nil
}

type authorizeParams struct {
	Auth     authParams `json:"Auth"`
	FeCAEReq feCAEReq   `json:"FeCAEReq"`
}

type feCAEReq struct {
	FeCabReq feCabReq `json:"FeCabReq"`
	FeDetReq feDetReq `json:"FeDetReq"`
}

type feCabReq struct {
	CantReg  int `json:"CantReg"`
	PtoVta   int `json:"PtoVta"`
	CbteTipo int `json:"CbteTipo"`
}

type feDetReq struct {
	Detail feDetail `json:"FECAEDetRequest"`
}

type feDetail struct {
	Concepto               int         `json:"Concepto"`
	DocTipo                int         `json:"DocTipo"`
	DocNro                 int64       `json:"DocNro"`
	CbteDesde              int64       `json:"CbteDesde"`
	CbteHasta              int64       `json:"CbteHasta"`
	CbteFch                int         `json:"CbteFch"`
	ImpTotal               json.Number `json:"ImpTotal"`
	ImpTotConc             json.Number `json:"ImpTotConc"`
	ImpNeto                json.Number `json:"ImpNeto"`
	ImpOpEx                json.Number `json:"ImpOpEx"`
	ImpIVA                 json.Number `json:"ImpIVA"`
	ImpTrib                json.Number `json:"ImpTrib"`
	MonID                  string      `json:"MonId"`
	MonCotiz               int         `json:"MonCotiz"`
	CondicionIVAReceptorID int         `json:"CondicionIVAReceptorId"`
}

type authorizeResponse struct {
	Result *struct {
		FeDetResp *struct {
			Details []struct {
				Resultado string `json:"Resultado"`
				CAE       string `json:"CAE"`
				CAEFchVto string `json:"CAEFchVto"`
				CbteDesde *int64 `json:"CbteDesde"`
			} `json:"FECAEDetResponse"`
		} `json:"FeDetResp"`
	} `json:"FECAESolicitarResult"`
}

// Authorize submits voucher number for approval.  A decline is not an
// error: the returned Authorization has Approved=false.
func (c *Client) Authorize(ctx context.Context, s Session, req VoucherRequest, number int64) (Authorization, error) {
	ctx, span := c.tracer.Start(ctx, "afip.authorize", trace.WithAttributes(
		attribute.Int64("afip.voucher_number", number),
	))
	defer span.End()

	auth, err := c.authParams(s, req.IssuerTaxID)
	if err != nil {
		return Authorization{}, fail(span, err)
	}
	docTipo, _ := strconv.Atoi(DocTypeCode(req.RecipientDocType))
	docNro, err := parseDocNumber(req.RecipientDocNumber)
	if err != nil {
		return Authorization{}, fail(span, fmt.Errorf("afip: recipient document: %w", err))
	}
	total := json.Number(req.Amount.StringFixed(2))
	zero := json.Number("0")
	currency := req.Currency
	if currency == "" {
		currency = "PES"
	}
	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now().UTC()
	}
	cbteFch, _ := strconv.Atoi(issueDate.Format("20060102"))

	var out authorizeResponse
	if err := c.post(ctx, "/requests", gatewayCall{
		Environment: c.cfg.Environment,
		WSID:        c.cfg.WSID,
		Method:      methodAuthorize,
		Params: authorizeParams{
			Auth: auth,
			FeCAEReq: feCAEReq{
				FeCabReq: feCabReq{CantReg: 1, PtoVta: req.PointOfSale, CbteTipo: VoucherTypeCode(req.VoucherType)},
				FeDetReq: feDetReq{Detail: feDetail{
					Concepto:               conceptProducts,
					DocTipo:                docTipo,
					DocNro:                 docNro,
					CbteDesde:              number,
					CbteHasta:              number,
					CbteFch:                cbteFch,
					ImpTotal:               total,
					ImpTotConc:             total,
					ImpNeto:                zero,
					ImpOpEx:                zero,
					ImpIVA:                 zero,
					ImpTrib:                zero,
					MonID:                  currency,
					MonCotiz:               1,
					CondicionIVAReceptorID: finalConsumerVAT,
				}},
			},
		},
	}, &out); err != nil {
		return Authorization{}, fail(span, err)
	}
	if out.Result == nil || out.Result.FeDetResp == nil || len(out.Result.FeDetResp.Details) == 0 {
		return Authorization{}, fail(span, errors.New("afip: missing FECAEDetResponse"))
	}
	det := out.Result.FeDetResp.Details[0]

	a := Authorization{VoucherNumber: number}
	if det.CbteDesde != nil {
		a.VoucherNumber = *det.CbteDesde
	}
	if !strings.EqualFold(det.Resultado, resultApproved) || det.CAE == "" {
		log.Printf("[afip] voucher not approved: result=%q number=%d", det.Resultado, a.VoucherNumber)
		span.SetAttributes(attribute.String("afip.result", det.Resultado))
		return a, nil
	}
	a.Approved = true
	a.CAE = det.CAE
	if exp, err := time.ParseInLocation("20060102", det.CAEFchVto, time.UTC); err == nil {
		a.CAEExpiry = &exp
	} else if exp, err := time.ParseInLocation("2006-01-02", det.CAEFchVto, time.UTC); err == nil {
		a.CAEExpiry = &exp
	}
	span.SetAttributes(attribute.String("afip.result", det.Resultado))
	return a, nil
}

func (c *Client) authParams(s Session, issuerTaxID string) (authParams, error) {
	src := issuerTaxID
	if digits(src) == "" {
		src = c.cfg.TaxID
	}
	cuit, err := parseTaxID(src)
	if err != nil {
		return authParams{}, err
	}
	return authParams{Token: s.Token, Sign: s.Sign, Cuit: cuit}, nil
}

func (c *Client) sessionKey() string {
	return strings.Join([]string{c.cfg.Environment, c.cfg.WSID, digits(c.cfg.TaxID)}, ":")
}

// post sends body as JSON and decodes the answer into out.  The body is
// decoded by hand so a bridge that omits Content-Type still parses.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post(path)
	if err != nil {
		return fmt.Errorf("afip %s: %w", path, err)
	}
	if resp.IsError() {
		return &StatusError{Path: path, Code: resp.StatusCode(), Body: truncate(resp.String(), 512)}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("afip %s: decode: %w", path, err)
	}
	return nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
