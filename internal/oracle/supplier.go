package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/radieske/bet-tracker/internal/settlement"
)

// SupplierClient consulta um fornecedor de resultados via HTTP/JSON (POST /oracle/verify).
// 204 => inconclusivo; 200 => veredito; outros status => ErrCommunication.
type SupplierClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewSupplierClient(base string) *SupplierClient {
	return &SupplierClient{
		BaseURL: strings.TrimSuffix(base, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *SupplierClient) Verify(ctx context.Context, in Request) (*settlement.Verdict, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/oracle/verify", bytes.NewReader(body))
	if err != nil {
		return nil, communication(err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, communication(err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNoContent:
		return nil, nil
	case res.StatusCode >= 300:
		return nil, communication(fmt.Errorf("supplier http %s", res.Status))
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, communication(err)
	}
	// corpo malformado conta como inconclusivo, não como falha
	return ParseVerdict(string(b)), nil
}
