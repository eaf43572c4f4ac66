package physics

// Sample interpolates the recoil profile linearly at n evenly spaced depths
// from the first to the last point. It returns nil for n < 2 or an empty
// profile.
func (r *RecoilElement) Sample(n int) []float64 {
	if r == nil || len(r.Points) == 0 || n < 2 {
		return nil
	}
	out := make([]float64, n)
	first, last := r.Points[0].Depth, r.Points[len(r.Points)-1].Depth
	if last == first {
		for i := range out {
			out[i] = r.Points[len(r.Points)-1].Concentration
		}
		return out
	}

	step := (last - first) / float64(n-1)
	seg := 0
	for i := range out {
		depth := first + float64(i)*step
		for seg < len(r.Points)-2 && depth > r.Points[seg+1].Depth {
			seg++
		}
		a, b := r.Points[seg], r.Points[min(seg+1, len(r.Points)-1)]
		if b.Depth == a.Depth {
			out[i] = b.Concentration
			continue
		}
		frac := (depth - a.Depth) / (b.Depth - a.Depth)
		if frac > 1 {
			frac = 1
		}
		out[i] = a.Concentration + frac*(b.Concentration-a.Concentration)
	}
	return out
}

// MaxDepth is the depth of the last profile point.
func (r *RecoilElement) MaxDepth() float64 {
	if r == nil || len(r.Points) == 0 {
		return 0
	}
	return r.Points[len(r.Points)-1].Depth
}
