package layout

import (
	"encoding/json"
	"os"
)

// debugDocument 是调试输出的外层结构。
type debugDocument struct {
	Geometry Geometry     `json:"geometry"`
	Pages    []RenderPage `json:"pages"`
}

// WriteDebugJSON 将排版结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(g Geometry, pages []RenderPage, path string) error {
	if len(pages) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(debugDocument{Geometry: g, Pages: pages}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
