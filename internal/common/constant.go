package common

// AccessTokenHeaderName is the HTTP/websocket metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// UnknownEntryID is recorded when a client uploads an asset without
// associating it with a journal entry.
const UnknownEntryID = "unknown"
