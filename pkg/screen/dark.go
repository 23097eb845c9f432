package screen

import (
	"gocv.io/x/gocv"
)

// DarkRatio returns the fraction of pixels whose gray intensity is below
// threshold. Empty images report 0.
func DarkRatio(img gocv.Mat, threshold uint8) float64 {
	if img.Empty() {
		return 0
	}

	gray := img
	if img.Channels() > 1 {
		gray = gocv.NewMat()
		defer gray.Close()
		code := gocv.ColorBGRToGray
		if img.Channels() == 4 {
			code = gocv.ColorBGRAToGray
		}
		gocv.CvtColor(img, &gray, code)
	}

	mask := gocv.NewMat()
	defer mask.Close()
	// Pixels at or above threshold become 255; the rest are the dark ones.
	gocv.Threshold(gray, &mask, float32(threshold)-1, 255, gocv.ThresholdBinary)

	total := gray.Rows() * gray.Cols()
	if total == 0 {
		return 0
	}
	bright := gocv.CountNonZero(mask)
	return float64(total-bright) / float64(total)
}
