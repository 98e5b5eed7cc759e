// Package gatewaysdk is the Go client for the API gateway and the home of
// its wire types.
//
// A Client authenticates with the OAuth2 client-credentials grant and
// refreshes its access token transparently:
//
//	c := gatewaysdk.New("https://gateway.example.com", clientID, secret)
//	body, err := c.GetPatient(ctx, "42")
//
// Failed calls return an *APIError carrying the HTTP status, the stable
// error code and, for throttled calls, the Retry-After hint:
//
//	var apiErr *gatewaysdk.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == gatewaysdk.ErrorCodeRateLimitExceeded {
//		time.Sleep(apiErr.RetryAfter)
//	}
//
// The same APIError values are used by the gateway itself to write its
// error responses, so client and server agree on codes and statuses.
package gatewaysdk
