package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten"
)

// Nine draws a nine-slice frame: corners keep their size, edges stretch
// along one axis and the centre along both.
type Nine struct {
	images              *ebiten.Image
	alpha               float64
	R, G, B, Scale      float64
	positions           [4][2]int
	x, y, width, height int
	targetPositions     [4][2]float64
}

// frameSource is a 3x3 grid of size px cells: an opaque ring around a
// faint centre.
func frameSource(size, border int) image.Image {
	n := size * 3
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			inner := x >= border && y >= border && x < n-border && y < n-border
			if inner {
				img.Set(x, y, color.RGBA{255, 255, 255, 24})
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func NewNine(size, border int) (*Nine, error) {
	src, err := ebiten.NewImageFromImage(frameSource(size, border), ebiten.FilterDefault)
	if err != nil {
		return nil, err
	}
	return &Nine{
		images: src,
		alpha:  1,
		R:      1, G: 1, B: 1, Scale: 1,
		positions: [4][2]int{{0, 0}, {size, size}, {2 * size, 2 * size}, {3 * size, 3 * size}},
	}, nil
}

func (n *Nine) SetColor(c GameColor, alpha float64) {
	n.R, n.G, n.B = c.r, c.g, c.b
	n.alpha = alpha
}

func (n *Nine) SetBounds(x, y, width, height int) {
	n.x, n.y = x, y
	n.width, n.height = width, height
	n.targetPositions[0][0] = float64(n.x)
	n.targetPositions[0][1] = float64(n.y)

	n.targetPositions[1][0] = float64(n.x) + n.Scale*float64(n.positions[1][0]-n.positions[0][0])
	n.targetPositions[1][1] = float64(n.y) + n.Scale*float64(n.positions[1][1]-n.positions[0][1])

	n.targetPositions[2][0] = float64(n.x+n.width) - n.Scale*float64(n.positions[3][0]-n.positions[2][0])
	n.targetPositions[2][1] = float64(n.y+n.height) - n.Scale*float64(n.positions[3][1]-n.positions[2][1])

	n.targetPositions[3][0] = float64(n.x + n.width)
	n.targetPositions[3][1] = float64(n.y + n.height)
}

func (n *Nine) Draw(screen *ebiten.Image) {
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			src := image.Rect(
				n.positions[col][0], n.positions[row][1],
				n.positions[col+1][0], n.positions[row+1][1])
			dstW := n.targetPositions[col+1][0] - n.targetPositions[col][0]
			dstH := n.targetPositions[row+1][1] - n.targetPositions[row][1]
			if dstW <= 0 || dstH <= 0 {
				continue
			}
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(dstW/float64(src.Dx()), dstH/float64(src.Dy()))
			op.GeoM.Translate(n.targetPositions[col][0], n.targetPositions[row][1])
			op.ColorM.Scale(n.R, n.G, n.B, n.alpha)
			screen.DrawImage(n.images.SubImage(src).(*ebiten.Image), op)
		}
	}
}
