package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"mail-genie/internal/agent"
	"mail-genie/pkg/errors"
	"mail-genie/pkg/log"
)

// 对外固定文案
const (
	MessageSuccess = "Email generated successfully."
	MessageGeneric = "An error occurred while generating the email. Please try again later."
)

// ErrValidation 请求未通过校验（在任何补全调用之前）
var ErrValidation = stderrors.New("invalid compose request")

// ValidationError 带对外文案的校验错误，errors.Is(err, ErrValidation) 为 true
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string         { return e.Message }
func (e *ValidationError) PublicMessage() string { return e.Message }
func (e *ValidationError) Is(target error) bool  { return target == ErrValidation }

// Runner 管线入口；agent.Agent 实现该接口
type Runner interface {
	Run(ctx context.Context, goal string) (*agent.Output, error)
}

// ComposeRequest 生成请求；Language 为空或 "auto" 时不限定语言
type ComposeRequest struct {
	Goal     string `json:"goal"`
	Language string `json:"language,omitempty"`
}

// Result 对外结果；Err 保留原始错误供传输层选择状态码
type Result struct {
	Success bool          `json:"success"`
	Data    *agent.Output `json:"data,omitempty"`
	Message string        `json:"message"`
	Err     error         `json:"-"`
}

// ComposeOptions ComposeService 配置
type ComposeOptions struct {
	MinGoalLength int           // <=0 时为 10
	Timeout       time.Duration // 单次请求上限，0 不限制
	Logger        *log.Logger
}

// ComposeService 校验请求、运行管线并把错误归约为对外文案
type ComposeService struct {
	runner  Runner
	minGoal int
	timeout time.Duration
	logger  *log.Logger
}

// NewComposeService 创建 ComposeService
func NewComposeService(r Runner, opts ComposeOptions) *ComposeService {
	if opts.MinGoalLength <= 0 {
		opts.MinGoalLength = 10
	}
	return &ComposeService{runner: r, minGoal: opts.MinGoalLength, timeout: opts.Timeout, logger: opts.Logger}
}

// Goal 校验请求并返回交给管线的目标文本
func (s *ComposeService) Goal(req ComposeRequest) (string, error) {
	goal := strings.TrimSpace(req.Goal)
	if utf8.RuneCountInString(goal) < s.minGoal {
		return "", &ValidationError{Message: fmt.Sprintf("Please describe your goal in at least %d characters.", s.minGoal)}
	}
	lang := strings.TrimSpace(req.Language)
	if lang != "" && !strings.EqualFold(lang, "auto") {
		goal += " (in " + lang + ")"
	}
	return goal, nil
}

// Compose 执行一次邮件生成；从不返回 error，失败体现在 Result 中
func (s *ComposeService) Compose(ctx context.Context, req ComposeRequest) Result {
	logger := log.FromContext(ctx, s.logger)
	goal, err := s.Goal(req)
	if err != nil {
		return Result{Success: false, Message: err.Error(), Err: err}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.runner.Run(ctx, goal)
	if err != nil {
		msg, ok := errors.PublicMessage(err)
		if !ok {
			logger.Error("compose failed", "error", err)
			msg = MessageGeneric
		} else {
			logger.Warn("compose rejected", "error", err)
		}
		return Result{Success: false, Message: msg, Err: err}
	}
	return Result{Success: true, Data: out, Message: MessageSuccess}
}
