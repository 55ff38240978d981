package app

import (
	fyneapp "fyne.io/fyne/v2/app"
	"go.uber.org/zap/zapcore"

	"yashubustudio/deliveryadvisor/advisor"
)

const fyneAppID = "yashubustudio.deliveryadvisor"

// Run loads configuration, catalog and model, then starts the desktop UI.
func Run(configPath string) error {
	cfg, err := advisor.LoadConfig(configPath)
	if err != nil {
		return err
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	logs := newLogCapture(logLineLimit)
	logger, err := advisor.NewLogger(cfg.Log, logs.core(level))
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine, closeEngine, err := advisor.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, NewSession(engine), logs, logger)
	u.w.ShowAndRun()
	return nil
}
