package compare

// impBounds is the WBF IMP scale: impBounds[i] is the smallest point
// difference worth i+1 IMPs.
var impBounds = []int{
	20, 50, 90, 130, 170, 220, 270, 320, 370, 430,
	500, 600, 750, 900, 1100, 1300, 1500, 1750, 2000,
	2250, 2500, 3000, 3500, 4000,
}

// IMPs converts a signed point swing to signed international match points.
func IMPs(swing int) int {
	mag := swing
	if mag < 0 {
		mag = -mag
	}
	imps := 0
	for _, bound := range impBounds {
		if mag < bound {
			break
		}
		imps++
	}
	if swing < 0 {
		return -imps
	}
	return imps
}
