//go:build unix && !linux

package backend

func (v VM) remap(region []byte, newSize int) ([]byte, error) {
	return ResizeByCopy(v, region, newSize)
}
