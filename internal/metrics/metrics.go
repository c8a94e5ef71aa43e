// Package metrics provides Prometheus collectors for the relay components.
package metrics

const (
	namespace = "bridge_sentinel"
	unknown   = "unknown"
)

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func labelOrUnknown(v string) string {
	if v == "" {
		return unknown
	}
	return v
}
