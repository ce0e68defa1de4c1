package out

// BGRXToRGBA converts width x height texels from rows of stride bytes to
// tightly packed opaque RGBA.
func BGRXToRGBA(dst, src []byte, width, height, stride int) {
	for y := 0; y < height; y++ {
		s := src[y*stride:]
		d := dst[y*width*4:]
		for x := 0; x < width; x++ {
			d[x*4] = s[x*4+2]
			d[x*4+1] = s[x*4+1]
			d[x*4+2] = s[x*4]
			d[x*4+3] = 0xFF
		}
	}
}
