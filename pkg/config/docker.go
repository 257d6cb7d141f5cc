package config

import (
	"os"
	"sync"
)

// dockerGatewayHost is how a container reaches services published on its host.
const dockerGatewayHost = "host.docker.internal"

var (
	isDockerOnce   sync.Once
	isDockerResult bool

	// dockerEnvPath exists inside every Docker container.
	dockerEnvPath = "/.dockerenv"
)

// IsRunningInDocker reports whether the engine runs inside a Docker container.
// The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat(dockerEnvPath)
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker rewrites loopback database hosts to the Docker host gateway
// when running in a container, so a local Postgres stays reachable.
func ResolveHostForDocker(host string) string {
	return resolveHost(host, IsRunningInDocker())
}

func resolveHost(host string, inDocker bool) string {
	if !inDocker {
		return host
	}
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return dockerGatewayHost
	}
	return host
}
