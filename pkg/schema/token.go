package schema

import (
    "fmt"
    "net"
    "strings"

    "github.com/google/uuid"
)

// NormalizeToken renders a schema version value in its canonical string
// form. UUIDs in any representation (driver UUID type, raw 16 bytes, upper
// case or braced strings) become lowercase hyphenated text so equal versions
// compare equal. Nil becomes the empty token.
func NormalizeToken(v interface{}) string {
    switch x := v.(type) {
    case nil:
        return ""
    case string:
        return normalizeString(x)
    case [16]byte:
        return uuid.UUID(x).String()
    case []byte:
        if u, err := uuid.FromBytes(x); err == nil { return u.String() }
        return normalizeString(string(x))
    case fmt.Stringer:
        return normalizeString(x.String())
    default:
        return normalizeString(fmt.Sprint(x))
    }
}

func normalizeString(s string) string {
    s = strings.TrimSpace(s)
    if u, err := uuid.Parse(s); err == nil { return u.String() }
    return s
}

// nodeAddress renders an address column. Null and unspecified (0.0.0.0, ::)
// addresses report ok=false.
func nodeAddress(v interface{}) (string, bool) {
    var ip net.IP
    switch x := v.(type) {
    case nil:
        return "", false
    case net.IP:
        ip = x
    case string:
        s := strings.TrimSpace(x)
        if s == "" { return "", false }
        ip = net.ParseIP(s)
        if ip == nil { return s, true }
    default:
        s := strings.TrimSpace(fmt.Sprint(x))
        return s, s != ""
    }
    if len(ip) == 0 || ip.IsUnspecified() { return "", false }
    return ip.String(), true
}
