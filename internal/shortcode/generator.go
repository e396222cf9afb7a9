package shortcode

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	// Alphabet 是 URL 安全的 64 个字符，每个随机字节取低 6 位即可均匀映射
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	// DefaultLength 默认短码长度，64^7 约 4.4 万亿种组合
	DefaultLength = 7
	MinLength     = 6
	MaxLength     = 12
	// maxStoredLength 超过该长度的短码一定不是本服务签发的
	maxStoredLength = 64
	// DefaultPoolSize 预生成短码通道的缓冲区大小
	DefaultPoolSize = 1000
)

// Generator 生成新的短码
type Generator interface {
	Generate() (string, error)
}

// RandomGenerator 基于 crypto/rand 的短码生成器，可选地在后台预生成短码
type RandomGenerator struct {
	length   int
	pool     chan string
	stopChan chan struct{}
	stopOnce sync.Once
	logger   *zap.SugaredLogger
}

// NewRandomGenerator 创建一个新的短码生成器实例
func NewRandomGenerator(length int, logger *zap.SugaredLogger) (*RandomGenerator, error) {
	if length < MinLength || length > MaxLength {
		return nil, fmt.Errorf("短码长度必须在 %d-%d 之间: %d", MinLength, MaxLength, length)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RandomGenerator{
		length:   length,
		stopChan: make(chan struct{}),
		logger:   logger.Named("shortcode_generator"),
	}, nil
}

// Length 返回生成的短码长度
func (g *RandomGenerator) Length() int {
	return g.length
}

// Start 启动后台预生成任务，必须在第一次调用 Generate 之前调用
func (g *RandomGenerator) Start(poolSize int) {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	g.pool = make(chan string, poolSize)
	g.logger.Infof("启动短码生成器，预生成缓冲区大小 %d", poolSize)
	go g.fill()
}

// Stop 停止后台预生成任务
func (g *RandomGenerator) Stop() {
	g.stopOnce.Do(func() {
		g.logger.Info("正在停止短码生成器...")
		close(g.stopChan)
	})
}

// Generate 优先从预生成通道取短码，通道为空时直接生成
func (g *RandomGenerator) Generate() (string, error) {
	if g.pool != nil {
		select {
		case code := <-g.pool:
			return code, nil
		default:
		}
	}
	return g.randomString()
}

// fill 持续填充通道，通道满时阻塞
func (g *RandomGenerator) fill() {
	for {
		code, err := g.randomString()
		if err != nil {
			g.logger.Errorf("生成短码时出错: %v", err)
			return
		}
		select {
		case g.pool <- code:
		case <-g.stopChan:
			g.logger.Info("预生成任务已停止。")
			return
		}
	}
}

// randomString 使用加密安全的随机数生成器生成一个给定长度的字符串
func (g *RandomGenerator) randomString() (string, error) {
	b := make([]byte, g.length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = Alphabet[b[i]&63]
	}
	return string(b), nil
}

// Valid 判断字符串是否可能是本服务签发的短码，不可能的短码无需查询存储
func Valid(code string) bool {
	if code == "" || len(code) > maxStoredLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
