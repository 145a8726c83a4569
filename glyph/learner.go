package glyph

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Learner 为字体无法绘制的字符生成替代字形（PNG）。
type Learner interface {
	Learn(ctx context.Context, ch rune) ([]byte, error)
}

// LearnerConfig 是 OpenAI 兼容图像生成服务的配置。
type LearnerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Key     string `mapstructure:"key"`
	Model   string `mapstructure:"model"`
}

// OpenAILearner 通过图像生成接口绘制单个字符。
type OpenAILearner struct {
	client *openai.Client
	model  string
}

// NewOpenAILearner 创建学习器，BaseURL 为空时使用官方地址。
func NewOpenAILearner(cfg LearnerConfig) *OpenAILearner {
	conf := openai.DefaultConfig(cfg.Key)
	if cfg.BaseURL != "" {
		conf.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE2
	}
	return &OpenAILearner{client: openai.NewClientWithConfig(conf), model: model}
}

func prompt(ch rune) string {
	return fmt.Sprintf(
		"A single black glyph of the Unicode character %s (%q) centered on a plain white square background, "+
			"flat, no shading, no border, no other text.",
		strings.Replace(CodeKey(ch), "0x", "U+", 1), string(ch),
	)
}

func (l *OpenAILearner) Learn(ctx context.Context, ch rune) ([]byte, error) {
	resp, err := l.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt(ch),
		Model:          l.model,
		N:              1,
		Size:           openai.CreateImageSize256x256,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("生成字形 %s 失败: %w", CodeKey(ch), err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("生成字形 %s 失败: 响应中没有图像", CodeKey(ch))
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("解码字形 %s 失败: %w", CodeKey(ch), err)
	}
	return data, nil
}

// LearnMissing 为缺失日志中的每个字符生成替代字形并登记，成功登记的字符从日志中移除。
// 单个字符失败只记录日志，返回成功登记的码点键。
func LearnMissing(ctx context.Context, log *MissingLog, reg *Registry, learner Learner, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	codes, err := log.List()
	if err != nil {
		return nil, err
	}
	var learned []string
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return learned, err
		}
		ch, err := ParseCode(code)
		if err != nil {
			logger.Warn("跳过无效码点", zap.String("code", code), zap.Error(err))
			continue
		}
		data, err := learner.Learn(ctx, ch)
		if err != nil {
			logger.Warn("字形学习失败", zap.String("code", code), zap.Error(err))
			continue
		}
		if err := reg.Save(ch, data); err != nil {
			logger.Warn("字形登记失败", zap.String("code", code), zap.Error(err))
			continue
		}
		learned = append(learned, code)
	}
	if len(learned) > 0 {
		if err := log.Remove(learned...); err != nil {
			return learned, err
		}
	}
	return learned, nil
}
