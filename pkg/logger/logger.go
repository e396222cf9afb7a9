package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Logger *zap.Logger        = zap.NewNop()
	Sugar  *zap.SugaredLogger = Logger.Sugar()
)

// Options 日志输出配置
type Options struct {
	Level      string // debug / info / warn / error
	File       string // 为空时只输出到控制台
	MaxSize    int    // 单个日志文件最大尺寸，单位 MB
	MaxBackups int
	MaxAge     int // 天
	Compress   bool
	Console    bool
}

// InitLogger 初始化 zap 日志记录器，并替换全局 logger
func InitLogger(opts Options) error {
	level, err := zapcore.ParseLevel(defaultString(opts.Level, "info"))
	if err != nil {
		return err
	}

	writeSyncer, err := getLogWriter(opts)
	if err != nil {
		return err
	}
	core := zapcore.NewCore(getEncoder(opts.File == ""), writeSyncer, level)

	Logger = zap.New(core, zap.AddCaller())
	Sugar = Logger.Sugar()
	zap.ReplaceGlobals(Logger)
	return nil
}

// Sync 刷新缓冲区中的日志
func Sync() error {
	return Logger.Sync()
}

// getEncoder 设置日志编码格式
func getEncoder(colored bool) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if colored {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	// 写文件时使用不带颜色的 JSON，方便采集
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// getLogWriter 指定日志写入位置 (文件和控制台)
func getLogWriter(opts Options) (zapcore.WriteSyncer, error) {
	if opts.File == "" {
		return zapcore.AddSync(os.Stdout), nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, err
	}

	// 使用 lumberjack 实现日志切割和归档
	lumberJackLogger := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    defaultInt(opts.MaxSize, 10),
		MaxBackups: defaultInt(opts.MaxBackups, 5),
		MaxAge:     defaultInt(opts.MaxAge, 30),
		Compress:   opts.Compress,
	}
	if !opts.Console {
		return zapcore.AddSync(lumberJackLogger), nil
	}
	return zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), zapcore.AddSync(lumberJackLogger)), nil
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
