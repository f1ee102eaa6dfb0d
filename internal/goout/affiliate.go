package goout

import (
	"net/url"
	"strings"
)

// AffiliateParam is the query parameter carrying the referral code
const AffiliateParam = "aff"

// AppendAffiliate tags rawURL with aff=<referral>.
// Any existing aff parameter is dropped, the others keep their order and the new
// aff always comes last. An empty referral or an unparseable URL returns rawURL as-is.
func AppendAffiliate(rawURL, referral string) string {
	if referral == "" {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	pairs := make([]string, 0, 4)
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			decodedKey = key
		}
		if decodedKey == AffiliateParam {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			decodedValue = value
		}
		pairs = append(pairs, url.QueryEscape(decodedKey)+"="+url.QueryEscape(decodedValue))
	}
	pairs = append(pairs, AffiliateParam+"="+url.QueryEscape(referral))

	u.RawQuery = strings.Join(pairs, "&")
	return u.String()
}
