package model

import (
	"heatsink/thermal"
)

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// websocket 消息类型
const (
	MsgAnalyze   = "analyze"
	MsgPredict   = "predict"
	MsgDefault   = "default"
	MsgAnalyzed  = "analyzed"
	MsgPredicted = "predicted"
	MsgDefaulted = "defaulted"
	MsgError     = "error"
)

// 请求结构体，所有字段可选，缺省取默认值，未知字段忽略
type Request struct {
	Processor *Processor `json:"processor,omitempty" yaml:"processor,omitempty"`
	HeatSink  *HeatSink  `json:"heat_sink,omitempty" yaml:"heat_sink,omitempty"`
	Materials *Materials `json:"materials,omitempty" yaml:"materials,omitempty"`
	Air       *Air       `json:"air,omitempty" yaml:"air,omitempty"`
}

// 处理器参数
type Processor struct {
	DieLength    *float64 `json:"die_length,omitempty" yaml:"die_length,omitempty"`
	DieWidth     *float64 `json:"die_width,omitempty" yaml:"die_width,omitempty"`
	DieThickness *float64 `json:"die_thickness,omitempty" yaml:"die_thickness,omitempty"`
	TDP          *float64 `json:"tdp,omitempty" yaml:"tdp,omitempty"`
	Rjc          *float64 `json:"R_jc,omitempty" yaml:"R_jc,omitempty"`
}

// 散热器参数，fin_height 由 overall_height - base_thickness 计算，不接受输入
type HeatSink struct {
	Length        *float64 `json:"length,omitempty" yaml:"length,omitempty"`
	Width         *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	BaseThickness *float64 `json:"base_thickness,omitempty" yaml:"base_thickness,omitempty"`
	NumFins       *int     `json:"num_fins,omitempty" yaml:"num_fins,omitempty"`
	FinThickness  *float64 `json:"fin_thickness,omitempty" yaml:"fin_thickness,omitempty"`
	OverallHeight *float64 `json:"overall_height,omitempty" yaml:"overall_height,omitempty"`
}

// 材料参数
type Materials struct {
	AluminumK    *float64 `json:"aluminum_k,omitempty" yaml:"aluminum_k,omitempty"`
	TimK         *float64 `json:"tim_k,omitempty" yaml:"tim_k,omitempty"`
	TimThickness *float64 `json:"tim_thickness,omitempty" yaml:"tim_thickness,omitempty"`
}

// 空气物性
type Air struct {
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	K           *float64 `json:"k,omitempty" yaml:"k,omitempty"`
	Nu          *float64 `json:"nu,omitempty" yaml:"nu,omitempty"`
	Pr          *float64 `json:"pr,omitempty" yaml:"pr,omitempty"`
	Velocity    *float64 `json:"velocity,omitempty" yaml:"velocity,omitempty"`
}

// 物理求解结果
type AnalyzeResponse struct {
	TjPhysics float64         `json:"Tj_physics"`
	TjExcel   float64         `json:"Tj_excel"`
	Details   thermal.Details `json:"details"`
}

// 修正后结果
type PredictResponse struct {
	TjPhysics   float64         `json:"Tj_physics"`
	TjCorrected float64         `json:"Tj_corrected"`
	DeltaT      float64         `json:"delta_T"`
	Details     thermal.Details `json:"details"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
