package parser

import (
	"strconv"
	"strings"
	"time"
)

// integerKeys are the FortiOS fields coerced to integers; duration is the
// only float field. Coercion failure nulls the single key, never the parse.
var integerKeys = map[string]bool{
	"srcport":   true,
	"dstport":   true,
	"proto":     true,
	"sentbyte":  true,
	"rcvdbyte":  true,
	"sentpkt":   true,
	"rcvdpkt":   true,
	"sessionid": true,
	"policyid":  true,
	"appid":     true,
}

const (
	fortinetDateLayout = "2006-01-02 15:04:05"
)

// FortinetParser parses FortiOS traffic log lines: space-separated key=value
// tokens, values optionally double-quoted, with an optional syslog priority
// tag glued to the first key.
type FortinetParser struct{}

func NewFortinetParser() *FortinetParser {
	return &FortinetParser{}
}

func (p *FortinetParser) Vendor() string {
	return "fortinet"
}

func (p *FortinetParser) Parse(raw string) *Result {
	result := &Result{
		Raw:    raw,
		Fields: make(map[string]string),
		Ints:   make(map[string]int64),
		Floats: make(map[string]float64),
	}

	for _, token := range strings.Fields(raw) {
		idx := strings.Index(token, "=")
		if idx < 0 {
			continue
		}

		key := stripPriorityTag(strings.TrimSpace(token[:idx]))
		value := strings.Trim(token[idx+1:], `"`)
		if key == "" {
			continue
		}

		if _, seen := result.Fields[key]; !seen {
			result.Keys = append(result.Keys, key)
		}
		result.Fields[key] = value
	}

	p.coerce(result)
	p.reconstructTimestamp(result)

	return result
}

func (p *FortinetParser) coerce(result *Result) {
	for key := range integerKeys {
		v, ok := result.Fields[key]
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			result.Ints[key] = n
		}
	}

	if v, ok := result.Fields["duration"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			result.Floats["duration"] = f
		}
	}
}

func (p *FortinetParser) reconstructTimestamp(result *Result) {
	date, hasDate := result.Fields["date"]
	tm, hasTime := result.Fields["time"]
	if !hasDate || !hasTime {
		return
	}

	// No zone in the layout, so time.Parse yields UTC.
	ts, err := time.Parse(fortinetDateLayout, date+" "+tm)
	if err != nil {
		return
	}
	result.Timestamp = &ts
}

// stripPriorityTag removes a leading syslog priority tag such as "<189>" that
// arrives glued to the first key of the datagram.
func stripPriorityTag(key string) string {
	if !strings.HasPrefix(key, "<") {
		return key
	}
	end := strings.Index(key, ">")
	if end < 2 {
		return key
	}
	for _, c := range key[1:end] {
		if c < '0' || c > '9' {
			return key
		}
	}
	return key[end+1:]
}
