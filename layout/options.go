package layout

// Typesetter 为排版阶段提供测量能力，由渲染后端实现。
// fontSize 单位为 pt，返回的测量函数同样以 pt 计宽。
type Typesetter interface {
	Measurer(isCode bool, fontSize float64) MeasureFunc
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	// Dir 非空时，每个文档的排版结果以 JSON 写入该目录。
	Dir string
}
