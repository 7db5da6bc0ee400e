package handlers

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"citybasic/internal/content"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SlugLister lists available cities.
type SlugLister interface {
	Slugs() ([]string, error)
}

type SEOHandler struct {
	siteURL     string
	sitemapFile string
	cities      SlugLister
	log         *zap.SugaredLogger
	now         func() time.Time
}

func NewSEOHandler(siteURL, sitemapFile string, cities SlugLister, log *zap.SugaredLogger) *SEOHandler {
	return &SEOHandler{
		siteURL:     strings.TrimRight(siteURL, "/"),
		sitemapFile: sitemapFile,
		cities:      cities,
		log:         log,
		now:         time.Now,
	}
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// RobotsTxt 返回robots.txt内容
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	robots := fmt.Sprintf(`User-agent: *
Allow: /

# 禁止爬取API和登录端点
Disallow: /api/
Disallow: /auth/

Sitemap: %s/api/sitemap
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, robots)
}

// Sitemap 从 URL 列表文件生成 sitemap，文件缺失或为空时按城市和语言生成
func (h *SEOHandler) Sitemap(c *gin.Context) {
	locs, err := h.readURLList()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.log.Warnw("read sitemap url list", "file", h.sitemapFile, "error", err)
	}

	today := h.now().UTC().Format("2006-01-02")
	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	if len(locs) > 0 {
		for _, loc := range locs {
			set.URLs = append(set.URLs, sitemapURL{Loc: loc, LastMod: today})
		}
	} else {
		generated, err := h.cityURLs(today)
		if err != nil {
			serverError(c, h.log, err, "Failed to build sitemap")
			return
		}
		set.URLs = generated
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		serverError(c, h.log, err, "Failed to build sitemap")
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}

// readURLList 每行一个 URL，空行和 # 注释跳过，相对路径补全站点地址
func (h *SEOHandler) readURLList() ([]string, error) {
	if h.sitemapFile == "" {
		return nil, nil
	}
	f, err := os.Open(h.sitemapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var locs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "/") {
			line = h.siteURL + line
		}
		locs = append(locs, line)
	}
	return locs, scanner.Err()
}

func (h *SEOHandler) cityURLs(today string) ([]sitemapURL, error) {
	slugs, err := h.cities.Slugs()
	if err != nil {
		return nil, err
	}

	urls := []sitemapURL{{Loc: h.siteURL + "/", LastMod: today, ChangeFreq: "daily", Priority: "1.0"}}
	for _, slug := range slugs {
		for _, lang := range content.Languages {
			prefix := ""
			if lang != content.DefaultLanguage {
				prefix = "/" + lang
			}
			urls = append(urls, sitemapURL{
				Loc:        h.siteURL + prefix + "/cities/" + slug,
				LastMod:    today,
				ChangeFreq: "weekly",
				Priority:   "0.8",
			})
		}
	}
	return urls, nil
}
