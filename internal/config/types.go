package config

// Transport selects the live channel implementation.
type Transport string

const (
	TransportSocket Transport = "socket"
	TransportStream Transport = "stream"
	TransportPoll   Transport = "poll"
)

// ValidTransports lists the accepted channel.transport values.
var ValidTransports = map[Transport]bool{
	TransportSocket: true,
	TransportStream: true,
	TransportPoll:   true,
}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// minReferenceRatio mirrors the cache's own check so bad config fails at load.
const minReferenceRatio = 10
