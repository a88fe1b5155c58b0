package config

import "runtime"

// 构建时通过 -ldflags "-X" 注入
var (
	Version    string = "dev"
	CommitHash string = ""
)

// BuildInfo 版本信息，/version 与启动日志共用
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

// Build 返回当前二进制的版本信息
func Build() BuildInfo {
	return BuildInfo{Version: Version, Commit: CommitHash, GoVersion: runtime.Version()}
}

// IsProduction 生产环境：Version 为 "release" 且 CommitHash 不为空
func IsProduction() bool {
	return Version == "release" && CommitHash != ""
}

// IsDevelopment 未注入版本号的本地构建
func IsDevelopment() bool {
	return Version == "dev"
}
