package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// S3Config reúne endpoint, bucket e credenciais de um bucket S3 compatível.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
	HTTPClient   *http.Client
}

// S3 grava objetos com PUT assinado em SigV4.
type S3 struct {
	cfg    S3Config
	client *http.Client
	now    func() time.Time
}

// NewS3 valida a configuração e cria o uploader.
func NewS3(cfg S3Config) (*S3, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &S3{cfg: cfg, client: client, now: time.Now}, nil
}

func (cfg S3Config) validate() error {
	required := []struct{ name, value string }{
		{"endpoint", cfg.Endpoint},
		{"região", cfg.Region},
		{"bucket", cfg.Bucket},
		{"access key", cfg.AccessKey},
		{"secret key", cfg.SecretKey},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("storage: %s ausente", r.name)
		}
	}
	if u, err := url.Parse(cfg.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("storage: endpoint deve incluir protocolo http/https")
	}
	return nil
}

func (s *S3) Upload(ctx context.Context, obj Object) (*Stored, error) {
	key := strings.TrimLeft(strings.TrimSpace(obj.Key), "/")
	if key == "" {
		return nil, errors.New("storage: chave do objeto obrigatória")
	}
	if len(obj.Body) == 0 {
		return nil, errors.New("storage: corpo vazio")
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	escaped := (&url.URL{Path: key}).EscapedPath()
	target := s.cfg.Endpoint + "/" + s.cfg.Bucket + "/" + escaped

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(obj.Body))
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(obj.Body)
	payloadHash := hex.EncodeToString(sum[:])
	req.ContentLength = int64(len(obj.Body))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", strconv.Itoa(len(obj.Body)))
	req.Header.Set("x-amz-content-sha256", payloadHash)
	sign(req, s.cfg, payloadHash, s.now().UTC())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("storage: upload falhou (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	public := target
	if d := strings.TrimRight(s.cfg.PublicDomain, "/"); d != "" {
		public = d + "/" + escaped
	}
	return &Stored{Key: key, URL: public, ETag: strings.Trim(resp.Header.Get("ETag"), `"`)}, nil
}

// sign aplica AWS Signature V4 (serviço s3) aos cabeçalhos já definidos.
func sign(req *http.Request, cfg S3Config, payloadHash string, now time.Time) {
	amzDate := now.Format("20060102T150405Z")
	day := now.Format("20060102")
	req.Header.Set("x-amz-date", amzDate)
	req.Header.Set("Host", req.URL.Host)

	headerBlock, signed := signedHeaders(req.Header)
	canonical := strings.Join([]string{
		req.Method,
		awsEscape(pathOrRoot(req.URL.Path), false),
		canonicalQuery(req.URL.Query()),
		headerBlock,
		signed,
		payloadHash,
	}, "\n")

	scope := day + "/" + cfg.Region + "/s3/aws4_request"
	digest := sha256.Sum256([]byte(canonical))
	toSign := "AWS4-HMAC-SHA256\n" + amzDate + "\n" + scope + "\n" + hex.EncodeToString(digest[:])

	key := []byte("AWS4" + cfg.SecretKey)
	for _, part := range []string{day, cfg.Region, "s3", "aws4_request"} {
		key = mac(key, part)
	}
	signature := hex.EncodeToString(mac(key, toSign))

	req.Header.Set("Authorization", fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		cfg.AccessKey, scope, signed, signature,
	))
}

func pathOrRoot(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

func canonicalQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		vals := append([]string(nil), values[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, awsEscape(k, true)+"="+awsEscape(v, true))
		}
	}
	return strings.Join(parts, "&")
}

func signedHeaders(h http.Header) (string, string) {
	keys := make([]string, 0, len(h))
	lines := make(map[string]string, len(h))
	for k, vals := range h {
		lower := strings.ToLower(k)
		if lower == "authorization" {
			continue
		}
		trimmed := make([]string, len(vals))
		for i, v := range vals {
			trimmed[i] = strings.TrimSpace(v)
		}
		keys = append(keys, lower)
		lines[lower] = strings.Join(trimmed, ",")
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k + ":" + lines[k] + "\n")
	}
	return b.String(), strings.Join(keys, ";")
}

// awsEscape codifica conforme RFC 3986 (unreserved preservados).
func awsEscape(s string, encodeSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		case c == '/' && !encodeSlash:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func mac(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}
