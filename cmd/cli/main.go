// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mail-genie/internal/agent"
	"mail-genie/internal/api/http/middleware"
	appsvc "mail-genie/internal/app"
	"mail-genie/internal/app/api"
	"mail-genie/pkg/config"
	"mail-genie/pkg/tracing"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stdout)
		return 0
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "mail-genie cli %s\n", version)
		return 0
	case "health":
		return runHealth(apiBaseURL(), stdout, stderr)
	case "config":
		return runConfig(configPath(), stdout, stderr)
	case "compose":
		return runCompose(rest, apiBaseURL(), stdout, stderr)
	case "run":
		return runLocal(rest, configPath(), stdout, stderr)
	case "token":
		return runToken(rest, configPath(), stdout, stderr)
	default:
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mail-genie <command> [args]")
	fmt.Fprintln(w, "  version                          - 显示版本")
	fmt.Fprintln(w, "  health                           - 检查 API 服务（MAILGENIE_API_URL）")
	fmt.Fprintln(w, "  config                           - 显示配置概要（MAILGENIE_CONFIG）")
	fmt.Fprintln(w, "  compose [-lang L] <goal...>      - 通过 API 生成邮件（MAILGENIE_TOKEN 为 Bearer token）")
	fmt.Fprintln(w, "  run [-lang L] <goal...>          - 在本进程内运行管线")
	fmt.Fprintln(w, "  token [-sub S]                   - 用 api.middleware.jwt_key 签发 token")
}

func configPath() string {
	if p := os.Getenv("MAILGENIE_CONFIG"); p != "" {
		return p
	}
	return "configs/api.yaml"
}

// parseGoal 解析 -lang 与剩余参数组成的目标文本
func parseGoal(name string, args []string, stderr io.Writer) (appsvc.ComposeRequest, bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	lang := fs.String("lang", "", "target language (empty or auto keeps the goal's language)")
	if err := fs.Parse(args); err != nil {
		return appsvc.ComposeRequest{}, false
	}
	goal := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if goal == "" {
		fmt.Fprintf(stderr, "Usage: mail-genie %s [-lang L] <goal...>\n", name)
		return appsvc.ComposeRequest{}, false
	}
	return appsvc.ComposeRequest{Goal: goal, Language: *lang}, true
}

func printResult(w io.Writer, res *appsvc.Result) {
	if !res.Success {
		fmt.Fprintln(w, res.Message)
		return
	}
	printOutput(w, res.Data)
}

func printOutput(w io.Writer, out *agent.Output) {
	if out == nil {
		return
	}
	fmt.Fprintln(w, "Plan:")
	for i, step := range out.Plan {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
	fmt.Fprintf(w, "\nSubject: %s\n\n%s\n", out.Subject, out.Body)
}

func runCompose(args []string, baseURL string, stdout, stderr io.Writer) int {
	req, ok := parseGoal("compose", args, stderr)
	if !ok {
		return 1
	}
	res, err := postCompose(newClient(baseURL), req)
	if err != nil {
		fmt.Fprintf(stderr, "请求失败: %v\n", err)
		return 1
	}
	if !res.Success {
		printResult(stderr, res)
		return 2
	}
	printResult(stdout, res)
	return 0
}

func runHealth(baseURL string, stdout, stderr io.Writer) int {
	h, err := getHealth(newClient(baseURL))
	if err != nil {
		fmt.Fprintf(stderr, "健康检查失败: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%v (version %v, uptime %v)\n", h["status"], h["version"], h["uptime"])
	return 0
}

func runConfig(path string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadWithModel(path)
	if err != nil {
		fmt.Fprintf(stderr, "加载配置失败: %v\n", err)
		return 1
	}
	planner := cfg.Genie.Planner
	if planner == "" {
		planner = "llm"
	}
	fmt.Fprintf(stdout, "api.port=%d\n", cfg.API.Port)
	fmt.Fprintf(stdout, "api.host=%s\n", cfg.API.Host)
	fmt.Fprintf(stdout, "genie.planner=%s\n", planner)
	fmt.Fprintf(stdout, "genie.min_goal_length=%d\n", cfg.MinGoalLength())
	fmt.Fprintf(stdout, "model.defaults.llm=%s\n", cfg.Model.Defaults.LLM)
	for prompt, key := range cfg.Genie.PromptModels {
		fmt.Fprintf(stdout, "genie.prompt_models.%s=%s\n", prompt, key)
	}
	return 0
}

// runLocal 不经过 API，直接在本进程内装配并运行管线
func runLocal(args []string, path string, stdout, stderr io.Writer) int {
	req, ok := parseGoal("run", args, stderr)
	if !ok {
		return 1
	}
	cfg, err := config.LoadWithModel(path)
	if err != nil {
		fmt.Fprintf(stderr, "加载配置失败: %v\n", err)
		return 1
	}
	ctx := context.Background()

	if tc := cfg.Monitoring.Tracing; tc.Enable && tc.ExportEndpoint != "" {
		name := tc.ServiceName
		if name == "" {
			name = "mail-genie-cli"
		}
		tp, err := tracing.InitTracer(tracing.OTelConfig{ServiceName: name, ExportEndpoint: tc.ExportEndpoint, Insecure: tc.Insecure})
		if err != nil {
			fmt.Fprintf(stderr, "初始化链路追踪失败: %v\n", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(sctx)
			}()
		}
	}

	b, err := appsvc.NewBootstrap(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "初始化失败: %v\n", err)
		return 1
	}
	defer b.Close()

	res := b.Compose.Compose(ctx, req)
	if !res.Success {
		printResult(stderr, &res)
		return 2
	}
	printResult(stdout, &res)
	return 0
}

func runToken(args []string, path string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	sub := fs.String("sub", "cli", "token subject")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(stderr, "加载配置失败: %v\n", err)
		return 1
	}
	if cfg.API.Middleware.JWTKey == "" {
		fmt.Fprintln(stderr, "api.middleware.jwt_key 未配置")
		return 1
	}
	mw, err := api.NewJWTFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "初始化 JWT 失败: %v\n", err)
		return 1
	}
	token, expire, err := middleware.IssueToken(mw, *sub)
	if err != nil {
		fmt.Fprintf(stderr, "签发 token 失败: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, token)
	fmt.Fprintf(stderr, "expires at %s\n", expire.Format(time.RFC3339))
	return 0
}
