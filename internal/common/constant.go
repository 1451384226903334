package common

// AuthorizationHeaderName carries the bearer access token on API requests.
const AuthorizationHeaderName = "Authorization"

// RefreshTokenCookieName is the cookie used for cookie-transport refresh
// tokens.
const RefreshTokenCookieName = "REFRESH_TOKEN"
