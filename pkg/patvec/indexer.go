package patvec

import (
	"fmt"
	"io/fs"
	log "log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// IndexOptions 目录索引选项
type IndexOptions struct {
	// Mask 文件匹配模式（doublestar语法），默认 **/*.{md,txt}
	Mask string
}

// patentNumberPattern 形如 EP1234567 / US20210123456 的文件名
var patentNumberPattern = regexp.MustCompile(`^[A-Z]{2}\d{4,}$`)

// IndexDirectory 批量索引目录下的专利文本文件
// 每个匹配的文件作为一个专利入库并排队生成嵌入；
// 文件名形如专利号的（EP1234567.txt）会记录专利号，重复索引时按号更新
func (p *PatVec) IndexDirectory(path string, opts IndexOptions) (*IndexReport, error) {
	start := time.Now()

	absPath, err := filepath.Abs(expandPath(path))
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("path not found: %w", err)
	}

	mask := opts.Mask
	if mask == "" {
		mask = "**/*.{md,txt}"
	}

	report := &IndexReport{}

	err = filepath.WalkDir(absPath, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// 跳过隐藏目录
			if strings.HasPrefix(d.Name(), ".") && filePath != absPath {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(absPath, filePath)
		if err != nil {
			return err
		}

		matched, err := doublestar.Match(mask, relPath)
		if err != nil || !matched {
			report.Skipped++
			return nil
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			log.Warn("failed to read file", "path", relPath, "error", err)
			report.Skipped++
			return nil
		}

		patent := Patent{
			Title:   extractTitle(string(content), relPath),
			Content: string(content),
		}

		// 文件名形如专利号时记录，重复索引按号更新而不是重复建档
		stem := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
		if patentNumberPattern.MatchString(stem) {
			patent.PatentNumber = stem
		}

		jobID, indexErr := p.indexOne(patent)
		if indexErr != nil {
			log.Warn("failed to index file", "path", relPath, "error", indexErr)
			report.Skipped++
			return nil
		}

		report.Indexed++
		report.JobIDs = append(report.JobIDs, jobID)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	report.Elapsed = time.Since(start)
	log.Info("indexing complete", "indexed", report.Indexed, "skipped", report.Skipped)

	return report, nil
}

// indexOne 单个文件入库：有专利号且已存在则更新，否则新建
func (p *PatVec) indexOne(patent Patent) (string, error) {
	if patent.PatentNumber != "" {
		if existing, err := p.store.GetPatentByNumber(patent.PatentNumber); err == nil {
			return p.UpdatePatent(existing.ID, patent)
		}
	}

	_, jobID, err := p.AddPatent(patent)
	return jobID, err
}

// extractTitle 从内容或文件名提取标题
func extractTitle(content, filename string) string {
	// markdown h1标题优先
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			if title := strings.TrimSpace(strings.TrimPrefix(line, "# ")); title != "" {
				return title
			}
		}
	}

	// 否则取第一行非空文本
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			if len(line) > 120 {
				line = line[:120]
			}
			return line
		}
	}

	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// expandPath 展开路径（处理~）
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
