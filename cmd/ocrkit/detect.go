package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/wudi/ocrkit/predictor"
)

func newDetectCommand(cfg *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <inputs...>",
		Short: "Detect text boxes without recognizing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, cfg, args)
		},
	}
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

type detectPage struct {
	Page  int         `json:"page"`
	Boxes []detectBox `json:"boxes"`
}

type detectBox struct {
	XMin  float64 `json:"xmin"`
	YMin  float64 `json:"ymin"`
	XMax  float64 `json:"xmax"`
	YMax  float64 `json:"ymax"`
	Score float64 `json:"score"`
}

func runDetect(cmd *cobra.Command, cfg *settings, inputs []string) error {
	ctx := cmd.Context()

	doc, err := loadInputs(ctx, inputs, cfg.DPI)
	if err != nil {
		return err
	}

	det, err := predictor.Detection(ctx, cfg.DetArch,
		predictor.WithLogger(cfg.logger()),
		predictor.WithBatchSize(cfg.BatchSize),
	)
	if err != nil {
		return err
	}
	defer det.Close()

	boxes, err := det.Predict(ctx, doc.Images())
	if err != nil {
		return err
	}

	pages := make([]detectPage, len(boxes))
	for i, pageBoxes := range boxes {
		pages[i].Page = i
		pages[i].Boxes = make([]detectBox, len(pageBoxes))
		for j, b := range pageBoxes {
			pages[i].Boxes[j] = detectBox{
				XMin:  b.XMin,
				YMin:  b.YMin,
				XMax:  b.XMax,
				YMax:  b.YMax,
				Score: b.Score,
			}
		}
	}
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cfg.Output, append(data, '\n'))
}
