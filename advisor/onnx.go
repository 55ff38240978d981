package advisor

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	ort "github.com/yalue/onnxruntime_go"
)

var ortEnvMu sync.Mutex

// OnnxPredictor runs the exported classifier with ONNX Runtime. The model
// takes a float32 [rows, features] input and yields a [rows, 1] score.
type OnnxPredictor struct {
	cfg     ModelConfig
	session *ort.DynamicAdvancedSession
	ownsEnv bool
}

// NewOnnxPredictor loads the model and checks its input width against the
// pinned feature schema.
func NewOnnxPredictor(cfg ModelConfig) (*OnnxPredictor, error) {
	if cfg.Path == "" {
		return nil, eris.New("model path is required")
	}
	if err := CheckFeatureContract(cfg.SchemaVersion, cfg.Features); err != nil {
		return nil, err
	}
	ownsEnv, err := initORT(cfg.ORTLibrary)
	if err != nil {
		return nil, err
	}
	p := &OnnxPredictor{cfg: cfg, ownsEnv: ownsEnv}
	if err := p.checkModelInputs(); err != nil {
		p.Close()
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.Path,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		p.Close()
		return nil, eris.Wrap(err, "open model session")
	}
	p.session = session
	return p, nil
}

func initORT(library string) (bool, error) {
	ortEnvMu.Lock()
	defer ortEnvMu.Unlock()
	if ort.IsInitialized() {
		return false, nil
	}
	if library != "" {
		ort.SetSharedLibraryPath(library)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return false, eris.Wrap(err, "initialize onnxruntime")
	}
	return true, nil
}

func (p *OnnxPredictor) checkModelInputs() error {
	inputs, outputs, err := ort.GetInputOutputInfo(p.cfg.Path)
	if err != nil {
		return eris.Wrap(err, "inspect model")
	}
	var found bool
	for _, in := range inputs {
		if in.Name != p.cfg.InputName {
			continue
		}
		found = true
		dims := in.Dimensions
		if len(dims) == 0 {
			return eris.Wrapf(ErrSchemaMismatch, "model input %q has no shape", in.Name)
		}
		// Negative means a dynamic axis.
		if width := dims[len(dims)-1]; width >= 0 && width != int64(len(featureNames)) {
			return eris.Wrapf(ErrSchemaMismatch, "model input %q expects %d features, schema has %d",
				in.Name, width, len(featureNames))
		}
	}
	if !found {
		return eris.Wrapf(ErrSchemaMismatch, "model has no input named %q", p.cfg.InputName)
	}
	for _, out := range outputs {
		if out.Name == p.cfg.OutputName {
			return nil
		}
	}
	return eris.Wrapf(ErrSchemaMismatch, "model has no output named %q", p.cfg.OutputName)
}

// Predict scores every row of table. Sessions are safe for concurrent Run
// calls; tensors are per call.
func (p *OnnxPredictor) Predict(_ context.Context, table FeatureTable) ([]float64, error) {
	if p == nil || p.session == nil {
		return nil, eris.New("onnx predictor is not initialized")
	}
	if err := table.Check(); err != nil {
		return nil, err
	}
	rows, width := len(table.Rows), len(table.Columns)
	if rows == 0 {
		return nil, nil
	}
	data := make([]float32, 0, rows*width)
	for _, row := range table.Rows {
		for _, v := range row {
			data = append(data, float32(v))
		}
	}
	input, err := ort.NewTensor(ort.NewShape(int64(rows), int64(width)), data)
	if err != nil {
		return nil, eris.Wrap(err, "create input tensor")
	}
	defer input.Destroy()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(rows), 1))
	if err != nil {
		return nil, eris.Wrap(err, "create output tensor")
	}
	defer output.Destroy()

	if err := p.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, eris.Wrap(err, "run model")
	}
	raw := output.GetData()
	scores := make([]float64, len(raw))
	for i, v := range raw {
		scores[i] = float64(v)
	}
	return scores, nil
}

// Close releases the session and, if this predictor initialized it, the
// ONNX Runtime environment.
func (p *OnnxPredictor) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.session != nil {
		err = p.session.Destroy()
		p.session = nil
	}
	if p.ownsEnv {
		ortEnvMu.Lock()
		defer ortEnvMu.Unlock()
		if destroyErr := ort.DestroyEnvironment(); destroyErr != nil && err == nil {
			err = destroyErr
		}
		p.ownsEnv = false
	}
	return err
}
