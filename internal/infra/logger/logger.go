package logger

import (
	"go.uber.org/zap"
)

// prodならJSON、それ以外は読みやすい開発用
func New(goEnv string) (*zap.Logger, error) {
	if goEnv == "prod" || goEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
