package api

import (
	"context"
	"net/http"
)

// RegistrationRequest is the device identity exchanged for credentials.
type RegistrationRequest struct {
	TerminalID string `json:"terminalId"`
	Hostname   string `json:"hostname"`
	Platform   string `json:"platform"`
	Version    string `json:"version"`
	MACAddress string `json:"macAddress"`
}

// RegistrationResponse carries the credentials issued by the collection API.
type RegistrationResponse struct {
	APIKey     string
	LocationID string
}

// Register exchanges device identity for an API key and location id. An empty
// APIKey in the response means the server declined the registration.
func (c *Client) Register(ctx context.Context, req RegistrationRequest) (RegistrationResponse, error) {
	var out RegistrationResponse

	resp, err := c.Send(ctx, "/register", req, http.MethodPost)
	if err != nil {
		return out, err
	}
	if key, ok := resp["apiKey"].(string); ok {
		out.APIKey = key
	}
	if loc, ok := resp["locationId"].(string); ok {
		out.LocationID = loc
	}
	return out, nil
}
