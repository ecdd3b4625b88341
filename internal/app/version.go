package app

const ServiceName = "internship-service"

// Set at build time:
//
//	go build -ldflags="-X 'internship-service/internal/app.Version=1.0.0'"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
