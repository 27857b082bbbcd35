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
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mail-genie/internal/app"
	"mail-genie/internal/app/api"
	"mail-genie/pkg/config"
)

var version = "dev"

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	path := os.Getenv("MAILGENIE_CONFIG")
	if path == "" {
		path = "configs/api.yaml"
	}
	cfg, err := config.LoadWithModel(path)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	bootstrap, err := app.NewBootstrap(context.Background(), cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	application, err := api.NewApp(bootstrap, version)
	if err != nil {
		log.Fatalf("创建 API 应用失败: %v", err)
	}

	addr := ":8080"
	if cfg.API.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	}

	go func() {
		if err := application.Run(addr); err != nil {
			log.Printf("API 服务异常退出: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.Shutdown(ctx); err != nil {
		log.Printf("关闭失败: %v", err)
	}
	log.Println("API 服务已关闭")
}
