package cmd

import (
	"os"
	"time"

	"github.com/douhashi/labelbulk/internal/batch"
	"github.com/douhashi/labelbulk/internal/config"
	"github.com/douhashi/labelbulk/internal/jira"
	"github.com/douhashi/labelbulk/internal/logger"
	"github.com/douhashi/labelbulk/internal/paths"
	"github.com/douhashi/labelbulk/internal/prompt"
	"github.com/douhashi/labelbulk/internal/retry"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
)

// モック用の関数変数
var (
	appFs              = afero.NewOsFs()
	nowFunc            = time.Now
	newJiraServiceFunc = newJiraService
	isInteractiveFunc  = func() bool {
		fd := os.Stdin.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	newPrompterFunc = func() batch.Prompter {
		return prompt.NewSpacePolicyPrompter()
	}
)

// newJiraService はリトライ付きのJiraクライアントを作成する
func newJiraService(cfg *config.Config, log logger.Logger) (jira.Service, error) {
	client, err := jira.NewClient(jira.Options{
		BaseURL:        cfg.Jira.BaseURL,
		Email:          cfg.Jira.Email,
		APIToken:       cfg.Jira.APIToken,
		BearerToken:    cfg.Jira.BearerToken,
		APIVersion:     cfg.Jira.APIVersion,
		VerifySSL:      cfg.Jira.VerifySSL,
		Timeout:        cfg.Request.Timeout,
		PageSize:       cfg.Request.PageSize,
		RateLimitPause: cfg.Request.RateLimitPause,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}

	policy := retry.Policy{
		MaxRetries: cfg.Request.MaxRetries,
		BasePause:  cfg.Request.RateLimitPause,
		Logger:     log,
	}
	return jira.NewRetryingService(client, policy), nil
}

// inputPath はフラグ指定がなければ設定の入力ファイルを返す
func inputPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return appConfig.Paths.InputFile
}

func newPathManager() paths.PathManager {
	return paths.NewPathManager(appConfig.Paths.OutputDir, appConfig.Paths.LogDir)
}

// loadOptions は設定と端末の状態からLoadOptionsを組み立てる
func loadOptions(skipValidation bool) batch.LoadOptions {
	opts := batch.LoadOptions{SkipValidation: skipValidation}

	policy, err := batch.ParseSpacePolicy(appConfig.Processing.LabelSpacePolicy)
	if err != nil {
		policy = batch.SpacePolicyPrompt
	}
	opts.SpacePolicy = policy

	// 対話できない環境ではpromptはabortとして扱われる
	if policy == batch.SpacePolicyPrompt && isInteractiveFunc() {
		opts.Prompter = newPrompterFunc()
	}
	return opts
}
